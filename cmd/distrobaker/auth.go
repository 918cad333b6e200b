package main

import (
	"context"
	"fmt"
	"os"

	"github.com/release-engineering/distrobaker/internal/buildsystem"
	"github.com/release-engineering/distrobaker/internal/config"
)

// preloadConfig fetches distrobaker.yaml once up front so buildFactories
// can read the source/destination profile names before the Engine does
// its own (separate) load. A daemon long enough to reload config at
// runtime would cache this instead; this CLI is a thin, one-shot-per-
// invocation wrapper, so the duplicate clone is an acceptable trade.
func preloadConfig(ctx context.Context, configRepoURL string, retries int) (*config.Config, error) {
	return config.Load(ctx, configRepoURL, retries)
}

// buildFactories wires one buildsystem.Factory per role from cfg's
// source/destination endpoints. Credential material itself (keytab
// paths, client secrets) comes from the environment, not distrobaker.yaml
// (spec.md §1 places credential loading out of scope; these env vars are
// this CLI's own stand-in for it).
func buildFactories(cfg *config.Config, retries int, dryRun bool) (source, dest buildsystem.Factory, err error) {
	srcProfile := cfg.Configuration.Source.Profile
	source = func(ctx context.Context) (buildsystem.System, error) {
		return buildsystem.NewSourceSystem(srcProfile, retries), nil
	}

	mbs := cfg.Configuration.Destination.MBS
	if mbs == nil {
		return nil, nil, fmt.Errorf("configuration.destination.mbs is required to build a destination session")
	}
	dstProfile := cfg.Configuration.Destination.Profile

	switch mbs.AuthMethod {
	case "kerberos":
		krb5Conf := os.Getenv("DISTROBAKER_KRB5_CONFIG")
		keytab := os.Getenv("DISTROBAKER_KEYTAB")
		username := os.Getenv("DISTROBAKER_KRB5_USERNAME")
		realm := os.Getenv("DISTROBAKER_KRB5_REALM")
		if krb5Conf == "" || keytab == "" || username == "" || realm == "" {
			return nil, nil, fmt.Errorf("kerberos auth requires DISTROBAKER_KRB5_CONFIG, DISTROBAKER_KEYTAB, DISTROBAKER_KRB5_USERNAME, and DISTROBAKER_KRB5_REALM")
		}
		dest = func(ctx context.Context) (buildsystem.System, error) {
			auth, err := buildsystem.NewKerberosAuth(krb5Conf, keytab, username, realm)
			if err != nil {
				return nil, err
			}
			return buildsystem.NewDestinationSystem(dstProfile, mbs.APIURL, dryRun, retries, auth), nil
		}

	case "oidc":
		clientSecret := os.Getenv("DISTROBAKER_OIDC_CLIENT_SECRET")
		if clientSecret == "" {
			return nil, nil, fmt.Errorf("oidc auth requires DISTROBAKER_OIDC_CLIENT_SECRET")
		}
		dest = func(ctx context.Context) (buildsystem.System, error) {
			auth := buildsystem.NewOIDCAuth(ctx, mbs.OIDCIDProvider, mbs.OIDCClientID, clientSecret, mbs.OIDCScopes)
			return buildsystem.NewDestinationSystem(dstProfile, mbs.APIURL, dryRun, retries, auth), nil
		}

	default:
		return nil, nil, fmt.Errorf("unsupported mbs auth_method %q", mbs.AuthMethod)
	}

	return source, dest, nil
}
