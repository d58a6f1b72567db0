// Package oauth provides the local OAuth callback server and browser
// utilities. The server is the callback surface authorization redirects
// land on; each received redirect is handed to exactly one waiter.
package oauth

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/logger"
)

// Default port range scanned for a free callback port. Providers require
// the redirect URI to be registered, so the range is small and stable.
const (
	DefaultPortStart = 8091
	DefaultPortEnd   = 8099
)

// CallbackServer receives OAuth redirects on a loopback HTTP server.
// It implements driven.CallbackSource.
type CallbackServer struct {
	mu       sync.Mutex
	port     int
	server   *http.Server
	listener net.Listener
	params   chan *driven.CallbackParams
}

var _ driven.CallbackSource = (*CallbackServer)(nil)

// NewCallbackServer creates a callback server bound to the given port.
// Pass 0 to scan the default port range for a free one.
func NewCallbackServer(port int) *CallbackServer {
	return &CallbackServer{
		port:   port,
		params: make(chan *driven.CallbackParams, 1),
	}
}

// Start binds the listener and begins serving callbacks.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	port := s.port
	if port == 0 {
		found, err := FindAvailablePort(DefaultPortStart, DefaultPortEnd)
		if err != nil {
			return err
		}
		port = found
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("oauth callback server: %v", err)
		}
	}()

	logger.Debug("oauth callback server listening on port %d", s.port)
	return nil
}

// handleCallback processes one authorization redirect. Implicit flows put
// the token in the URL fragment, which never reaches the server, so a
// request with no recognizable parameters gets a small page that bounces
// the fragment back as query parameters.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := &driven.CallbackParams{
		Code:         query.Get("code"),
		AccessToken:  query.Get("access_token"),
		RefreshToken: query.Get("refresh_token"),
		State:        query.Get("state"),
		Error:        query.Get("error"),
	}

	if params.Code == "" && params.AccessToken == "" && params.Error == "" {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, fragmentBounceHTML)
		return
	}

	select {
	case s.params <- params:
	default:
		// No waiter will consume a second delivery; drop it.
	}

	w.Header().Set("Content-Type", "text/html")
	if params.Error != "" {
		desc := query.Get("error_description")
		fmt.Fprint(w, resultHTML("Authorization failed", html.EscapeString(desc)))
		return
	}
	fmt.Fprint(w, resultHTML("Authorization successful!", "You can close this window and return to the application."))
}

// WaitForCallback implements driven.CallbackSource.
func (s *CallbackServer) WaitForCallback(ctx context.Context) (*driven.CallbackParams, error) {
	select {
	case params := <-s.params:
		return params, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedirectURI implements driven.CallbackSource.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", s.port)
}

// Port returns the bound port.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Stop shuts down the callback server.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// FindAvailablePort finds an available port in the given range.
func FindAvailablePort(startPort, endPort int) (int, error) {
	for port := startPort; port <= endPort; port++ {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", startPort, endPort)
}

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// fragmentBounceHTML re-requests the callback with the URL fragment turned
// into query parameters so implicit-flow tokens reach the server.
const fragmentBounceHTML = `<!DOCTYPE html>
<html>
<head><title>Nuclia Sync - Authorization</title></head>
<body>
<script>
  if (window.location.hash.length > 1) {
    window.location.replace(window.location.pathname + "?" + window.location.hash.substring(1));
  } else {
    document.body.textContent = "Authorization failed: no response received.";
  }
</script>
</body>
</html>`

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Nuclia Sync - Authorization</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #FAFAFA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 48px 64px;
            border-radius: 16px;
            border: 1px solid #C7C8CC;
            box-shadow: 0 4px 24px rgba(0,0,0,0.08);
        }
        h1 {
            color: #333F50;
            margin: 0 0 8px 0;
            font-size: 24px;
            font-weight: 600;
        }
        p {
            color: #7B8088;
            margin: 0;
            font-size: 16px;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, title, message)
}
