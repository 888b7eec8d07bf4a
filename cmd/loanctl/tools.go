// cmd/loanctl/tools.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"loan-workers/internal/workers"
	"loan-workers/internal/workflow"
	"loan-workers/pkg/registry"
)

func renderBPMNCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "render-bpmn",
		Short: "Write the BPMN files the worker manager deploys",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := renderBPMN(outDir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "bpmn", "Output directory")
	return cmd
}

func renderBPMN(outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, def := range workflow.Definitions() {
		data, err := workflow.Render(def)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", def.ProcessID, err)
		}
		path := filepath.Join(outDir, workflow.FileName(def))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func verifyRegistryCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "verify-registry",
		Short: "Check the activity registry against the process definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			if err := reg.Check(workers.Expectations(workflow.Definitions())); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s matches %d activities\n", path, len(reg.Activities))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "configs/activity-registry.json", "Path to registry file")
	return cmd
}
