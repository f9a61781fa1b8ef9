// Command gotn is the CLI entrypoint for the gotn graph substrate: a
// subcommand dispatcher over the service façade's operations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gotn-ai/gotn/internal/config"
	"github.com/gotn-ai/gotn/internal/model"
	"github.com/gotn-ai/gotn/internal/service"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the testable entrypoint: it never calls os.Exit itself.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "usage: gotn <init|store-node|infer-edges|compose-plan|debug|recover> [flags]")
		return 2
	}

	switch args[1] {
	case "init":
		return runInit(args[2:], stdout, stderr)
	case "store-node":
		return runStoreNode(args[2:], stdout, stderr)
	case "infer-edges":
		return runInferEdges(args[2:], stdout, stderr)
	case "compose-plan":
		return runComposePlan(args[2:], stdout, stderr)
	case "debug":
		return runDebug(args[2:], stdout, stderr)
	case "recover":
		return runRecover(args[2:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[1])
		return 2
	}
}

func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".gotn", "workspace directory")
	projectID := fs.String("project", "default", "project id")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*workspaceDir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	svc, err := service.Open(context.Background(), cfg, *projectID)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return printEnvelope(stdout, svc.InitWorkspace(context.Background()))
}

func runStoreNode(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("store-node", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".gotn", "workspace directory")
	projectID := fs.String("project", "default", "project id")
	summary := fs.String("summary", "", "node summary")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*workspaceDir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	svc, err := service.Open(context.Background(), cfg, *projectID)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	n := &model.Node{Summary: *summary}
	return printEnvelope(stdout, svc.StoreNode(context.Background(), n))
}

func runInferEdges(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("infer-edges", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".gotn", "workspace directory")
	projectID := fs.String("project", "default", "project id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := config.Load(*workspaceDir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	svc, err := service.Open(context.Background(), cfg, *projectID)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return printEnvelope(stdout, svc.InferEdges(context.Background()))
}

func runComposePlan(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("compose-plan", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".gotn", "workspace directory")
	projectID := fs.String("project", "default", "project id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := config.Load(*workspaceDir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	svc, err := service.Open(context.Background(), cfg, *projectID)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return printEnvelope(stdout, svc.ComposePlan(context.Background()))
}

func runDebug(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("debug", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".gotn", "workspace directory")
	projectID := fs.String("project", "default", "project id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := config.Load(*workspaceDir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	svc, err := service.Open(context.Background(), cfg, *projectID)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return printEnvelope(stdout, svc.Debug(context.Background()))
}

func runRecover(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("recover", flag.ContinueOnError)
	workspaceDir := fs.String("workspace", ".gotn", "workspace directory")
	projectID := fs.String("project", "default", "project id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := config.Load(*workspaceDir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	svc, err := service.Open(context.Background(), cfg, *projectID)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return printEnvelope(stdout, svc.Recover(context.Background()))
}

func printEnvelope(stdout io.Writer, env service.Envelope) int {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))
	if !env.OK {
		return 1
	}
	return 0
}
