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
	"strings"
	"time"

	"github.com/release-engineering/distrobaker/internal/errs"
	"github.com/release-engineering/distrobaker/internal/resilience"
)

// mbsClient submits modular builds to the destination's Module Build
// Service HTTP API (§4.2). It is never used for queries: source/
// destination NVR and tag lookups are always served by rpcClient.
type mbsClient struct {
	apiURL     string
	dryRun     bool
	httpClient *http.Client
	retry      *resilience.RetryPolicy
	auth       Authenticator
}

func newMBSClient(apiURL string, dryRun bool, retries int, auth Authenticator) *mbsClient {
	return &mbsClient{
		apiURL: strings.TrimRight(apiURL, "/"),
		dryRun: dryRun,
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
		retry: resilience.FixedRetryPolicy(retries, "mbs_submit"),
		auth:  auth,
	}
}

type mbsSubmitBody struct {
	SCMURL                string              `json:"scmurl"`
	Branch                string              `json:"branch"`
	BuildrequireOverrides map[string][]string `json:"buildrequire_overrides,omitempty"`
	Scratch               bool                `json:"scratch"`
}

// SubmitModular posts a module-builds request; response handling follows
// §4.2 exactly: 401 is AuthError, any other non-2xx is BuildSubmitError
// carrying the body, and the id is read from either a bare object or the
// first element of an array response (MBS returns an array when a
// submission expands into more than one stream).
func (c *mbsClient) SubmitModular(ctx context.Context, scmURL, stream, platform string, opts SubmitOptions) (int64, error) {
	if c.dryRun {
		return 0, nil
	}

	body := mbsSubmitBody{
		SCMURL:  scmURL,
		Branch:  stream,
		Scratch: opts.Scratch,
	}
	if platform != "" {
		name, platformStream, _ := strings.Cut(platform, ":")
		body.BuildrequireOverrides = map[string][]string{name: {platformStream}}
	}
	if opts.BuildrequireOverrides != nil {
		body.BuildrequireOverrides = opts.BuildrequireOverrides
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, errs.BuildSubmit("submitModular", err)
	}

	var id int64
	err = resilience.WithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/module-builds/", bytes.NewReader(payload))
		if err != nil {
			return errs.BuildSubmit("submitModular", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.auth != nil {
			if err := c.auth.Authenticate(ctx, req); err != nil {
				return errs.Auth("submitModular", err)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errs.BuildSubmit("submitModular", err)
		}
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)

		if resp.StatusCode == http.StatusUnauthorized {
			return errs.Auth("submitModular", fmt.Errorf("mbs returned 401: %s", respBody))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errs.BuildSubmit("submitModular", fmt.Errorf("mbs returned %d: %s", resp.StatusCode, respBody))
		}

		parsed, err := parseMBSID(respBody)
		if err != nil {
			return errs.BuildSubmit("submitModular", err)
		}
		id = parsed
		return nil
	})
	return id, err
}

func parseMBSID(body []byte) (int64, error) {
	var obj struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &obj); err == nil && obj.ID != 0 {
		return obj.ID, nil
	}

	var arr []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &arr); err == nil && len(arr) > 0 {
		return arr[0].ID, nil
	}

	return 0, fmt.Errorf("could not parse module build id from response: %s", body)
}
