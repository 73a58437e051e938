package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/antibyte/retrobasic/pkg/auth"
	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/storage"
	"github.com/antibyte/retrobasic/pkg/terminal"
)

func main() {
	// Initialize configuration before all other initializations
	configPath := "settings.cfg"
	if err := configuration.Initialize(configPath); err != nil {
		fmt.Printf("Error initializing configuration: %v\n", err)
		return
	}

	if err := logger.Initialize(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		return
	}
	defer logger.Close()
	logger.ConfigInfo("System started - Configuration loaded from: %s", configPath)

	// Program storage for SAVE/LOAD
	dbPath := configuration.GetString("Storage", "database_file", "retrobasic.db")
	store, err := storage.Open(dbPath)
	if err != nil {
		logger.Fatal(logger.AreaStorage, "Storage initialization failed: %v", err)
	}
	defer store.Close()
	logger.Info(logger.AreaStorage, "Program storage opened: %s", dbPath)

	// Each session gets its own screen and interpreter instance
	handler := terminal.NewTerminalHandler(store)
	logger.Info(logger.AreaTerminal, "Terminal handler created (%dx%d screen)",
		terminal.ScreenRows(), terminal.ScreenCols())

	http.HandleFunc("/api/auth/session", auth.HandleCreateSession)
	http.HandleFunc("/ws", handler.HandleWebSocket)

	// Static frontend files
	staticDir := configuration.GetString("Server", "static_dir", "web")
	http.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			index := staticDir + "/index.html"
			if _, err := os.Stat(index); err == nil {
				http.ServeFile(w, r, index)
				return
			}
			logger.Error(logger.AreaGeneral, "index.html not found in %s", staticDir)
			http.Error(w, "Main HTML file not found", http.StatusNotFound)
			return
		}
		http.FileServer(http.Dir(staticDir)).ServeHTTP(w, r)
	})

	port := strconv.Itoa(configuration.GetInt("Server", "port", 8080))
	logger.Info(logger.AreaGeneral, "Starting HTTP server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Fatal(logger.AreaGeneral, "HTTP server startup failed: %v", err)
	}
}
