// Package lookaside implements the Lookaside Reconciler (C4, §4.4): for
// each entry in sourceManifest − destinationManifest, probe the
// destination cache, download from source when missing, and upload to
// the destination with hash verification.
//
// The wire protocol is a bespoke file-hash-over-HTTP contract
// (probe/download/upload) with no ecosystem client in the example pack,
// so it is built on net/http + crypto/md5 + crypto/sha512 directly —
// stdlib-justified, same reasoning as internal/manifest.
package lookaside

import (
	"context"
	"crypto/md5"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/release-engineering/distrobaker/internal/errs"
	"github.com/release-engineering/distrobaker/internal/manifest"
	"github.com/release-engineering/distrobaker/internal/resilience"
)

// Endpoint addresses one side's lookaside cache (source.cache or
// destination.cache, §3): a base URL, an upload CGI path, and the
// storage path prefix.
type Endpoint struct {
	URL  string
	CGI  string
	Path string
}

// Reconciler reconciles one component's manifest diff against a source
// and destination Endpoint.
type Reconciler struct {
	client *http.Client
	retry  *resilience.RetryPolicy
	dryRun bool
}

// NewReconciler builds a Reconciler retried up to retries times per
// entry.
func NewReconciler(retries int, dryRun bool) *Reconciler {
	return &Reconciler{
		client: &http.Client{Timeout: 60 * time.Second},
		retry:  resilience.FixedRetryPolicy(retries, "lookaside"),
		dryRun: dryRun,
	}
}

// Reconcile brings every entry in missing (== sourceManifest −
// destinationManifest, computed by manifest.Diff) into the destination
// cache (§4.4 steps 1–3). namespace/destCacheName/sourceCacheName name
// the <namespace>/<cacheName>/<filename> storage layout.
func (r *Reconciler) Reconcile(ctx context.Context, src, dst Endpoint, namespace, sourceCacheName, destCacheName string, missing []manifest.Entry) error {
	for _, entry := range missing {
		if err := r.reconcileOne(ctx, src, dst, namespace, sourceCacheName, destCacheName, entry); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, src, dst Endpoint, namespace, sourceCacheName, destCacheName string, entry manifest.Entry) error {
	return resilience.WithRetry(ctx, r.retry, func() error {
		exists, err := r.probe(ctx, dst, namespace, destCacheName, entry)
		if err != nil {
			return errs.CacheReconcile("probe destination cache", err).WithComponent(namespace, destCacheName, "")
		}
		if exists {
			return nil
		}

		tmp, err := os.CreateTemp("", "distrobaker-blob-*")
		if err != nil {
			return errs.CacheReconcile("create scratch file", err)
		}
		tmpPath := tmp.Name()
		defer os.Remove(tmpPath)
		defer tmp.Close()

		if err := r.download(ctx, src, namespace, sourceCacheName, entry, tmp); err != nil {
			return errs.CacheReconcile("download blob", err).WithComponent(namespace, sourceCacheName, "")
		}

		if r.dryRun {
			return nil
		}

		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return errs.CacheReconcile("rewind scratch file", err)
		}
		if err := r.upload(ctx, dst, namespace, destCacheName, entry, tmp); err != nil {
			return errs.CacheReconcile("upload blob", err).WithComponent(namespace, destCacheName, "")
		}
		return nil
	})
}

func blobPath(namespace, cacheName, filename string) string {
	return path.Join(namespace, cacheName, filename)
}

// probe checks for the existence of an entry at the declared hash (§4.4
// step 1). The endpoint is expected to expose a HEAD-able existence
// check keyed by path+hash.
func (r *Reconciler) probe(ctx context.Context, ep Endpoint, namespace, cacheName string, entry manifest.Entry) (bool, error) {
	u := ep.URL + "/" + blobPath(namespace, cacheName, entry.Filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false, err
	}
	q := req.URL.Query()
	q.Set("hash", entry.Hash)
	q.Set("hashtype", string(entry.HashType))
	req.URL.RawQuery = q.Encode()

	resp, err := r.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// download fetches the blob from ep into w, verifying its hash matches
// entry (§4.4 step 2).
func (r *Reconciler) download(ctx context.Context, ep Endpoint, namespace, cacheName string, entry manifest.Entry, w io.Writer) error {
	u := ep.URL + "/" + blobPath(namespace, cacheName, entry.Filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", u, resp.StatusCode)
	}

	h := hasherFor(entry.HashType)
	if _, err := io.Copy(io.MultiWriter(w, h), resp.Body); err != nil {
		return err
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != entry.Hash {
		return fmt.Errorf("hash mismatch for %s: want %s got %s", entry.Filename, entry.Hash, got)
	}
	return nil
}

// upload POSTs the temp file's content to ep's CGI endpoint with the
// declared hash (§4.4 step 3). Never invoked in dry-run.
func (r *Reconciler) upload(ctx context.Context, ep Endpoint, namespace, cacheName string, entry manifest.Entry, body io.Reader) error {
	u := strings.TrimRight(ep.URL, "/") + ep.CGI
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	q := url.Values{}
	q.Set("name", entry.Filename)
	q.Set("hash", entry.Hash)
	q.Set("hashtype", string(entry.HashType))
	q.Set("path", path.Join(ep.Path, namespace, cacheName))
	req.URL.RawQuery = q.Encode()

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload %s: status %d: %s", u, resp.StatusCode, b)
	}
	return nil
}

func hasherFor(t manifest.HashType) hash.Hash {
	if t == manifest.SHA512 {
		return sha512.New()
	}
	return md5.New()
}
