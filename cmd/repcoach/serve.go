package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/server"
	"github.com/ayusman/repcoach/internal/tray"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var c common
	c.register(fs)
	addr := fs.String("addr", ":8080", "listen address")
	webDir := fs.String("web", "", "static dashboard directory (default: search web/)")
	withTray := fs.Bool("tray", false, "show a system tray menu")
	trayConfig := fs.String("config", "", "live session config started from the tray")
	fs.Parse(args)

	a, st, err := c.open()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	static := *webDir
	if static == "" {
		static = findWebDir(c.dataDir)
	}
	if static != "" {
		log.Printf("[main] serving static files from %s", static)
	}

	srv := server.New(server.Config{StaticDir: static, Store: st, App: a})

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}
	log.Printf("[main] dashboard on http://%s", ln.Addr())

	if !*withTray {
		return serveHTTP(ln, srv)
	}

	liveCfg := config.DefaultSession(config.ModeLive)
	if *trayConfig != "" {
		loaded, err := config.Load(*trayConfig)
		if err != nil {
			return err
		}
		liveCfg = *loaded
	}

	go func() {
		if err := serveHTTP(ln, srv); err != nil {
			log.Fatalf("[main] server failed: %v", err)
		}
	}()

	runTray(srv.Hub(), liveCfg, dashboardURL(ln.Addr()))
	return nil
}

func serveHTTP(ln net.Listener, h *server.Server) error {
	return (&http.Server{Handler: h}).Serve(ln)
}

// runTray blocks on the main thread until Quit is chosen.
func runTray(hub *server.Hub, cfg config.Session, url string) {
	t := tray.New()
	t.OnToggle(func(running bool) error {
		if !running {
			hub.Stop()
			return nil
		}
		if err := hub.Start(cfg); err != nil {
			log.Printf("[tray] could not start session: %v", err)
			return err
		}
		return nil
	})
	t.OnDashboard(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("[tray] could not open %s: %v", url, err)
		}
	})
	t.OnQuit(func() {
		hub.Stop()
	})
	hub.OnFinished(func(rec *app.Record) {
		t.SetRunning(false)
		if rec != nil {
			t.SetLast(rec.Reps, rec.EndedAt.Sub(rec.StartedAt).Seconds())
		}
	})
	t.Run()
}

func dashboardURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil || host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s/", net.JoinHostPort(host, port))
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches "web", "../web", "../../web" and the data directory.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
