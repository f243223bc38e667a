package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	glspserver "github.com/tliron/glsp/server"

	"github.com/CWBudde/go-ahk2-lsp/internal/lsp"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

const (
	version    = "0.1.0"
	serverName = "go-ahk2-lsp"
)

var (
	tcpMode    bool
	tcpPort    int
	logLevel   string
	logFile    string
	configFile string
)

func init() {
	flag.BoolVar(&tcpMode, "tcp", false, "Run server in TCP mode (for debugging)")
	flag.IntVar(&tcpPort, "port", 8765, "TCP port to listen on (used with -tcp)")
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	flag.StringVar(&configFile, "config", "", "YAML configuration file")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, "%s version %s\n\n", serverName, version)
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", serverName)
	fmt.Fprintf(os.Stderr, "Language Server Protocol implementation for AutoHotkey v2\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	setupLogging()

	srv := server.New()

	if configFile != "" {
		cfg, err := server.LoadConfig(configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		srv = server.NewWithConfig(cfg)
	}

	lsp.SetServer(srv)

	handler := lsp.Handler()
	glspServer := glspserver.NewServer(&handler, serverName, logLevel == "debug")

	if tcpMode {
		log.Printf("%s %s listening on 127.0.0.1:%d", serverName, version, tcpPort)

		if err := glspServer.RunTCP(fmt.Sprintf("127.0.0.1:%d", tcpPort)); err != nil {
			log.Fatalf("TCP server error: %v", err)
		}

		return
	}

	log.Printf("%s %s serving on stdio", serverName, version)

	if err := glspServer.RunStdio(); err != nil {
		log.Fatalf("STDIO server error: %v", err)
	}
}

// verbosity maps -log-level onto the commonlog scale used by the protocol
// library.
func verbosity(level string) int {
	switch level {
	case "debug":
		return 2
	case "info":
		return 1
	case "warn":
		return -1
	default:
		return -2
	}
}

// setupLogging routes both the standard logger and the protocol library's
// logger to the same destination. Stdout is reserved for the protocol.
func setupLogging() {
	var path *string

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}

		log.SetOutput(f)

		path = &logFile
	} else {
		log.SetOutput(os.Stderr)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	commonlog.Configure(verbosity(logLevel), path)
}
