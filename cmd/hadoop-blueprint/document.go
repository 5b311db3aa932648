package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/processor"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/stack"
	"github.com/gzlj/hadoop-blueprint/pkg/logger"
	"github.com/gzlj/hadoop-blueprint/pkg/module"
)

const (
	commandExport             = "export"
	commandResolve            = "resolve"
	commandRequiredHostGroups = "required-hostgroups"
)

// readRequest parses a cluster document. YAML is a superset of JSON so both are accepted.
func readRequest(path string) (*module.ClusterRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cluster document: %w", err)
	}
	req := &module.ClusterRequest{}
	if err = yaml.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("parse cluster document %s: %w", path, err)
	}
	return req, nil
}

func run(name string, req *module.ClusterRequest, st *stack.Stack) (interface{}, error) {
	switch name {
	case commandExport:
		return processor.Export(req, st)
	case commandResolve:
		return processor.Resolve(req, st)
	case commandRequiredHostGroups:
		return processor.RequiredHostGroups(req, st)
	}
	return nil, fmt.Errorf("unknown command %q", name)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFile(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	return writeAndClose(f, v)
}

// writeAndClose writes v as JSON to w and closes it. The close error is returned
// when the write succeeded.
func writeAndClose(w io.WriteCloser, v interface{}) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return writeJSON(w, v)
}

// newDocumentCmd builds a command that reads one cluster document and prints the
// outcome of the named operation as JSON.
func newDocumentCmd(name, short string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   name + " [cluster.yaml]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(args[0])
			if err != nil {
				return err
			}
			st, err := stack.FromConfig(global.G_config.StackFile)
			if err != nil {
				return err
			}
			res, err := run(name, req, st)
			if err != nil {
				return err
			}
			logger.For(logger.ComponentCli).Debugw("Processed cluster document", "command", name, "path", args[0])

			if output != "" {
				return writeFile(output, res)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to a file instead of stdout")
	return cmd
}
