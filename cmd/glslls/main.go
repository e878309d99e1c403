package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"glslls/internal/compiler"
	"glslls/internal/config"
	"glslls/internal/server"
	"glslls/internal/transport"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

func main() {
	versionFlag := flag.Bool("version", false, "Print the version of the program")
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	addr := flag.String("addr", "", "Listen address (overrides the config file)")
	logFile := flag.String("logfile", "", "Log file path (overrides the config file)")
	verbose := flag.Int("verbose", -1, "Log verbosity, higher is chattier (overrides the config file)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("glslls language server version %s\n", Version)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *verbose >= 0 {
		cfg.Verbosity = *verbose
	}

	// Set up logging
	if cfg.LogFile != "" {
		commonlog.Configure(cfg.Verbosity, &cfg.LogFile)
	} else {
		commonlog.Configure(cfg.Verbosity, nil)
	}
	logger := commonlog.GetLogger("glslls")
	logger.Noticef("starting glslls %s", Version)

	session := server.NewSession(cfg, compiler.NewGlslang(cfg.Compiler))
	httpServer := transport.NewServer(cfg.Addr, session)

	logger.Noticef("listening on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
