package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/handler"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/stack"
	"github.com/gzlj/hadoop-blueprint/pkg/logger"
)

type APIServer struct {
	engine  *gin.Engine
	port    string
	handler *handler.Handler
}

func (s *APIServer) Run() error {
	return s.engine.Run(":" + s.port)
}

// 初始化线程数量
func initEnv() {
	runtime.GOMAXPROCS(runtime.NumCPU())
}

func (s *APIServer) registryApi() {
	registryBasicApis(s.engine, s.handler)
}

func registryBasicApis(r *gin.Engine, h *handler.Handler) {
	handler.RegistryApis(r, h, global.G_config.EnableMetric)
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "hadoop-blueprint",
		Short:         "Resolve and export Hadoop cluster blueprints",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := global.InitConfig(configPath); err != nil {
				return err
			}
			logger.Initialize(global.G_config.LogLevel, global.G_config.LogFormat)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file overlaying the environment")

	root.AddCommand(newServeCmd())
	root.AddCommand(newDocumentCmd(commandExport, "Replace concrete hosts of a cluster document with host group placeholders"))
	root.AddCommand(newDocumentCmd(commandResolve, "Resolve a blueprint and host group mapping into cluster configuration"))
	root.AddCommand(newDocumentCmd(commandRequiredHostGroups, "List the host groups a cluster document depends on"))
	return root
}

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blueprint API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			initEnv()
			st, err := stack.FromConfig(global.G_config.StackFile)
			if err != nil {
				return err
			}
			if port == "" {
				port = global.G_config.ServerPort
			}
			server := &APIServer{
				engine:  gin.Default(),
				port:    port,
				handler: handler.New(st),
			}
			server.registryApi()
			logger.For(logger.ComponentCli).Infow("Serving blueprint API", "port", port, "stack", st.Name(), "version", st.Version())
			return server.Run()
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port, overrides SERVER_PORT")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
