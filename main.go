// ABOUTME: Entry point for the fieracrm TUI, CLI and MCP server
// ABOUTME: Routes to the TUI, MCP server or crm subcommands based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fieracrm/app"
	"fieracrm/cli"
	"fieracrm/config"
	"fieracrm/logger"
	"fieracrm/ocr"
	"fieracrm/store"
	"fieracrm/tui"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	offline := flag.Bool("offline", false, "Use the in-memory store (no Firestore)")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("fieracrm version %s\n", version)
		os.Exit(0)
	}

	// A missing .env is fine; the key may already be in the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *offline {
		cfg.Offline = true
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	args := flag.Args()
	command := "tui"
	commandArgs := []string{}
	if len(args) > 0 {
		command = args[0]
		commandArgs = args[1:]
	}

	env, cleanup, err := buildEnv(cfg, zlog)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer cleanup()

	switch command {
	case "tui":
		if err := runTUI(env); err != nil {
			log.Fatalf("TUI failed: %v", err)
		}

	case "mcp":
		if err := cli.MCPCommand(env); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "crm":
		if len(commandArgs) == 0 {
			fmt.Println("Error: crm requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		if err := cli.EnsureLogin(env); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		if err := runCRM(env, commandArgs[0], commandArgs[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// buildEnv wires the stores, extractor and session from config.
func buildEnv(cfg *config.Config, zlog *zap.Logger) (*cli.Env, func(), error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, nil, err
	}

	session, err := app.OpenSession(filepath.Join(dataDir, "session"), cfg.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	var contacts store.ContactStore
	var fieras store.EventStore
	closeStore := func() {}

	if cfg.Offline {
		memory := store.NewMemory(func() int64 { return time.Now().UnixMilli() })
		contacts = memory.Contacts()
		fieras = memory.Fieras()
	} else {
		if cfg.ProjectID == "" {
			_ = session.Close()
			return nil, nil, fmt.Errorf("project_id is not configured; set it in config.json or run with --offline")
		}
		fs, err := store.NewFirestore(context.Background(), cfg.ProjectID, cfg.CredentialsFile, zlog)
		if err != nil {
			_ = session.Close()
			return nil, nil, fmt.Errorf("failed to connect to Firestore: %w", err)
		}
		contacts = fs.Contacts()
		fieras = fs.Fieras()
		closeStore = func() { _ = fs.Close() }
	}

	model := cfg.GeminiModel
	if model == "" {
		model = ocr.DefaultModel
	}
	extractor := ocr.NewGemini(os.Getenv(config.GeminiKeyEnv), model, zlog)

	env := &cli.Env{
		Contacts:  contacts,
		Fieras:    fieras,
		Extractor: extractor,
		Session:   session,
		Logger:    zlog,
	}
	cleanup := func() {
		closeStore()
		_ = session.Close()
	}
	return env, cleanup, nil
}

func runTUI(env *cli.Env) error {
	ctrl := app.NewController(env.Contacts, env.Fieras, env.Extractor, env.Session, env.Logger)
	if env.Session.Authenticated() {
		if err := ctrl.Start(context.Background()); err != nil {
			return err
		}
	}

	program := tea.NewProgram(tui.NewModel(ctrl), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func runCRM(env *cli.Env, command string, args []string) error {
	switch command {
	case "list-contacts":
		return cli.ListContactsCommand(env, args)
	case "scan":
		return cli.ScanCommand(env, args)
	case "delete-contact":
		return cli.DeleteContactCommand(env, args)
	case "list-fieras":
		return cli.ListFierasCommand(env, args)
	case "create-fiera":
		return cli.CreateFieraCommand(env, args)
	case "delete-fiera":
		return cli.DeleteFieraCommand(env, args)
	case "export":
		return cli.ExportCommand(env, args)
	case "import":
		return cli.ImportCommand(env, args)
	default:
		fmt.Printf("Unknown crm command: %s\n\n", command)
		printUsage()
		os.Exit(1)
		return nil
	}
}

func printUsage() {
	fmt.Printf(`fieracrm v%s - Trade-show lead capture

USAGE:
  fieracrm [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --offline              Use the in-memory store (no Firestore)

COMMANDS:
  tui                    Start the interactive interface (default)
  mcp                    Start MCP server for Claude Desktop
  crm                    Lead management commands

CRM COMMANDS:
  fieracrm crm scan [flags] <image>   Extract a contact from a card photo
    --fiera <id>            Associate the contact with a fiera
    --save                  Persist without interactive review

  fieracrm crm list-contacts   List contacts
    --query <text>          Search by name or company
    --fiera <id>            Filter by fiera
    --limit <n>             Max results (default: 50)

  fieracrm crm delete-contact <id>  Delete a contact

  fieracrm crm list-fieras     List fieras
  fieracrm crm create-fiera --name <name>  Create a fiera
  fieracrm crm delete-fiera [flags] <id>   Delete a fiera
    --reassign-to <id>      Move associated contacts to another fiera
    --detach                Leave associated contacts without a fiera

  fieracrm crm export          Export contacts to JSON
    --fiera <id>            Export only one fiera
    --out <file>            Output file

  fieracrm crm import [flags] <file>  Import a JSON backup as new records
    --yes                   Skip the confirmation prompt

EXAMPLES:
  # Scan a business card into the current fiera
  fieracrm crm scan --fiera sps2026 --save card.jpg

  # Delete a fiera, moving its contacts
  fieracrm crm delete-fiera --reassign-to sps2027 sps2026

`, version)
}
