package proxy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Handler serves the chat completion proxy endpoint
type Handler struct {
	cfg      Config
	verifier KeyVerifier
	client   *http.Client
	logger   *slog.Logger
}

// NewHandler creates the proxy handler. verifier is only consulted when
// user management is enabled.
func NewHandler(cfg Config, verifier KeyVerifier, client *http.Client, logger *slog.Logger) *Handler {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.UpstreamURL == "" {
		cfg.UpstreamURL = DefaultUpstreamURL
	}
	return &Handler{cfg: cfg, verifier: verifier, client: client, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, body, err := h.handle(w, r)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) && perr.Status < http.StatusInternalServerError {
			h.logger.Info("proxy request rejected", "status", perr.Status, "reason", perr.Message)
		} else {
			h.logger.Error("proxy request failed", "error", err)
		}
		writeError(w, err)
		return
	}
	writeRawJSON(w, status, body)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) (int, []byte, error) {
	if h.cfg.EnableUserManagement {
		if err := h.authorize(r); err != nil {
			return 0, nil, err
		}
	}

	body, err := readObject(w, r)
	if err != nil {
		return 0, nil, err
	}

	body, err = sjson.SetBytes(body, "model", h.cfg.Model)
	if err != nil {
		return 0, nil, newError(http.StatusInternalServerError, MsgError, err)
	}

	return h.forward(r, body)
}

func (h *Handler) authorize(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if header == "" {
		return newError(http.StatusUnauthorized, MsgNoAuthorization, nil)
	}
	token := strings.Replace(header, "Bearer ", "", 1)

	if h.verifier == nil {
		return newError(http.StatusInternalServerError, MsgInternal, fmt.Errorf("no key verifier configured"))
	}
	result, err := h.verifier.VerifyKey(r.Context(), token)
	if err != nil {
		return newError(http.StatusInternalServerError, MsgInternal, err)
	}
	if !result.Valid {
		return newError(http.StatusUnauthorized, MsgUnauthorized, fmt.Errorf("key rejected: %s", result.Code))
	}
	return nil
}

// readObject reads the request body, treating an empty body as {}
func readObject(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
	if err != nil {
		return nil, newError(http.StatusBadRequest, MsgInvalidBody, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte(`{}`), nil
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, newError(http.StatusBadRequest, MsgInvalidBody, nil)
	}
	return raw, nil
}

// forward posts body upstream. Any non-401 upstream status is relayed as 200.
func (h *Handler) forward(r *http.Request, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.cfg.UpstreamURL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, newError(http.StatusInternalServerError, MsgError, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.cfg.OpenAIAPIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, nil, newError(http.StatusInternalServerError, MsgError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return 0, nil, newError(http.StatusUnauthorized, MsgInvalidAPIKey, nil)
	}

	upstream, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, newError(http.StatusInternalServerError, MsgError, err)
	}
	if !gjson.ValidBytes(upstream) {
		return 0, nil, newError(http.StatusInternalServerError, MsgError, fmt.Errorf("upstream returned %d with a non-JSON body", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("relaying upstream error as 200", "upstream_status", resp.StatusCode)
	}
	return http.StatusOK, upstream, nil
}
