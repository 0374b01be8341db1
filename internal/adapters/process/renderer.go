// Package process renders components in a bun subprocess. The Go side talks
// to it with JSON requests over a unix socket.
package process

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/3-lines-studio/hydrate/internal/core"
	"github.com/3-lines-studio/hydrate/internal/usecase"
)

//go:embed renderer.ts
var RendererSource string

const socketTimeout = 5 * time.Second

type Options struct {
	WorkDir    string
	Production bool
	// Bun is the bun executable. Defaults to "bun" on PATH.
	Bun string
}

// Renderer implements usecase.ComponentLoader and usecase.StyleSheets.
type Renderer struct {
	cmd     *exec.Cmd
	socket  string
	baseURL string
	client  *http.Client
}

func NewRenderer(opts Options) (*Renderer, error) {
	socket := filepath.Join(os.TempDir(), fmt.Sprintf("hydrate-%d.sock", os.Getpid()))
	_ = os.Remove(socket)

	bun := opts.Bun
	if bun == "" {
		bun = "bun"
	}

	nodeEnv := "development"
	if opts.Production {
		nodeEnv = "production"
	}

	cmd := exec.Command(bun, "run", "--smol", "-")
	cmd.Dir = opts.WorkDir
	cmd.Env = append(os.Environ(), "HYDRATE_SOCKET="+socket, "NODE_ENV="+nodeEnv)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = strings.NewReader(RendererSource)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start bun: %w", err)
	}

	if err := waitForSocket(socket, socketTimeout); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		},
	}

	return &Renderer{
		cmd:     cmd,
		socket:  socket,
		baseURL: "http://localhost",
		client:  &http.Client{Transport: transport},
	}, nil
}

// NewClient talks to a renderer that is already listening at baseURL.
func NewClient(baseURL string, client *http.Client) *Renderer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Renderer{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (r *Renderer) Stop() error {
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	err := r.cmd.Process.Kill()
	_ = r.cmd.Wait()
	_ = os.Remove(r.socket)
	return err
}

func (r *Renderer) Load(ctx context.Context, path string) (usecase.Component, error) {
	var result struct {
		OK    bool         `json:"ok"`
		Error *remoteError `json:"error"`
	}
	if err := r.postJSON(ctx, "/load", map[string]any{"path": path}, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &component{r: r, path: path}, nil
}

func (r *Renderer) NewSheet(ctx context.Context, adapter core.AdapterID) (usecase.StyleSheet, error) {
	var result struct {
		ID    string       `json:"id"`
		Error *remoteError `json:"error"`
	}
	if err := r.postJSON(ctx, "/sheet", map[string]any{"adapter": adapter}, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &sheet{r: r, id: result.ID}, nil
}

type component struct {
	r    *Renderer
	path string
}

func (c *component) RenderStatic(ctx context.Context, props map[string]any) (string, error) {
	return c.r.renderHTML(ctx, "/render", map[string]any{
		"path":  c.path,
		"props": props,
	})
}

type sheet struct {
	r  *Renderer
	id string
}

func (s *sheet) Collect(ctx context.Context, c usecase.Component, props map[string]any) (string, error) {
	comp, ok := c.(*component)
	if !ok {
		return "", fmt.Errorf("component %T was not loaded by this renderer", c)
	}
	return s.r.renderHTML(ctx, "/sheet/collect", map[string]any{
		"id":    s.id,
		"path":  comp.path,
		"props": props,
	})
}

func (s *sheet) StyleTags(ctx context.Context) (string, error) {
	var result struct {
		Styles string       `json:"styles"`
		Error  *remoteError `json:"error"`
	}
	if err := s.r.postJSON(ctx, "/sheet/styles", map[string]any{"id": s.id}, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", result.Error
	}
	return result.Styles, nil
}

func (s *sheet) Seal(ctx context.Context) error {
	var result struct {
		OK    bool         `json:"ok"`
		Error *remoteError `json:"error"`
	}
	if err := s.r.postJSON(ctx, "/sheet/seal", map[string]any{"id": s.id}, &result); err != nil {
		return err
	}
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Renderer) renderHTML(ctx context.Context, endpoint string, body map[string]any) (string, error) {
	if props, ok := body["props"]; !ok || props == nil || isNilMap(props) {
		body["props"] = map[string]any{}
	}

	var result struct {
		HTML  string       `json:"html"`
		Error *remoteError `json:"error"`
	}
	if err := r.postJSON(ctx, endpoint, body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", result.Error
	}
	return result.HTML, nil
}

func isNilMap(v any) bool {
	m, ok := v.(map[string]any)
	return ok && m == nil
}

type remoteError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
	Errors  []struct {
		Message string `json:"message"`
		Stack   string `json:"stack"`
	} `json:"errors"`
}

func (e *remoteError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if len(e.Errors) > 0 {
		sb.WriteString("\n\nErrors:")
		for i, err := range e.Errors {
			fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Message)
			if err.Stack != "" {
				fmt.Fprintf(&sb, "\n     Stack: %s", err.Stack)
			}
		}
	}

	if e.Stack != "" {
		fmt.Fprintf(&sb, "\n\nStack:\n%s", e.Stack)
	}
	return sb.String()
}

func (r *Renderer) postJSON(ctx context.Context, endpoint string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("renderer %s returned %s", endpoint, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for bun socket at %s", path)
}
