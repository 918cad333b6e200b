package buildsystem

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/release-engineering/distrobaker/internal/errs"
	"github.com/release-engineering/distrobaker/internal/resilience"
)

// rpcClient is the flat build-system RPC surface (§6 "Build-system RPC"):
// session open, tag/NVR queries, and flat build submission. The transport
// shape — a pooled *http.Client with a TLS-1.2-floor transport — follows
// the teacher's internal/infrastructure/publishing webhook client; the
// wire protocol itself (a JSON envelope over one RPC endpoint) is a
// stand-in for the abstract "profile-addressable endpoint" §6 describes,
// since no concrete RPC schema is specified.
type rpcClient struct {
	profile    string
	dryRun     bool
	httpClient *http.Client
	retry      *resilience.RetryPolicy
	auth       Authenticator
}

// Authenticator attaches destination credentials to an outgoing RPC
// request; nil for anonymous (source) sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// NewRPCClient builds a System backed by the profile's RPC endpoint.
// auth is nil for source (anonymous) sessions.
func NewRPCClient(profile string, dryRun bool, retries int, auth Authenticator) System {
	return &rpcClient{
		profile: profile,
		dryRun:  dryRun,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		retry: resilience.FixedRetryPolicy(retries, "buildsystem_rpc"),
		auth:  auth,
	}
}

type rpcRequest struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcBuildInfo struct {
	NVR    string `json:"nvr"`
	Source string `json:"source"`
	Extra  struct {
		TypeInfo struct {
			Module struct {
				Name        string `json:"name"`
				Stream      string `json:"stream"`
				ModulemdStr string `json:"modulemd_str"`
			} `json:"module"`
		} `json:"typeinfo"`
	} `json:"extra"`
}

func (c *rpcClient) call(ctx context.Context, method string, params, out any) error {
	return resilience.WithRetry(ctx, c.retry, func() error {
		body, err := json.Marshal(rpcRequest{Method: method, Params: params})
		if err != nil {
			return errs.BuildSystem(method, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.profile, bytes.NewReader(body))
		if err != nil {
			return errs.BuildSystem(method, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.auth != nil {
			if err := c.auth.Authenticate(ctx, req); err != nil {
				return errs.Auth(method, err)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errs.BuildSystem(method, err)
		}
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)

		if resp.StatusCode == http.StatusUnauthorized {
			return errs.Auth(method, fmt.Errorf("rpc returned 401: %s", respBody))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errs.BuildSystem(method, fmt.Errorf("rpc %s returned %d: %s", method, resp.StatusCode, respBody))
		}
		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return errs.BuildSystem(method, err)
			}
		}
		return nil
	})
}

func toBuildInfo(r rpcBuildInfo) (BuildInfo, error) {
	if r.Source == "" {
		return BuildInfo{}, errs.BuildSystem("getBuild", fmt.Errorf("build %s has no source field", r.NVR))
	}
	return BuildInfo{
		NVR:      r.NVR,
		SCMURL:   r.Source,
		Name:     r.Extra.TypeInfo.Module.Name,
		Stream:   r.Extra.TypeInfo.Module.Stream,
		Modulemd: r.Extra.TypeInfo.Module.ModulemdStr,
	}, nil
}

func (c *rpcClient) LatestBuildByTag(ctx context.Context, tag, component string) (BuildInfo, error) {
	var result rpcBuildInfo
	params := map[string]any{"tag": tag, "package": component, "latest": true}
	if err := c.call(ctx, "listTagged", params, &result); err != nil {
		return BuildInfo{}, err
	}
	return toBuildInfo(result)
}

func (c *rpcClient) ListTagged(ctx context.Context, tag string, latest bool) ([]BuildInfo, error) {
	var results []rpcBuildInfo
	params := map[string]any{"tag": tag, "latest": latest}
	if err := c.call(ctx, "listTagged", params, &results); err != nil {
		return nil, err
	}
	out := make([]BuildInfo, 0, len(results))
	for _, r := range results {
		bi, err := toBuildInfo(r)
		if err != nil {
			return nil, err
		}
		out = append(out, bi)
	}
	return out, nil
}

func (c *rpcClient) GetBuild(ctx context.Context, nvr string) (BuildInfo, error) {
	var result rpcBuildInfo
	if err := c.call(ctx, "getBuild", map[string]any{"nvr": nvr}, &result); err != nil {
		return BuildInfo{}, err
	}
	return toBuildInfo(result)
}

// SubmitFlat submits a flat rebuild; in dry-run the RPC call is skipped
// entirely and task ID 0 is reported, per §6's "task id reported as 0".
func (c *rpcClient) SubmitFlat(ctx context.Context, scmURL, target string, opts SubmitOptions) (int64, error) {
	if c.dryRun {
		return 0, nil
	}
	var result struct {
		TaskID int64 `json:"task_id"`
	}
	params := map[string]any{
		"scmurl": scmURL,
		"target": target,
		"opts":   map[string]any{"scratch": opts.Scratch},
	}
	if err := c.call(ctx, "build", params, &result); err != nil {
		return 0, err
	}
	return result.TaskID, nil
}
