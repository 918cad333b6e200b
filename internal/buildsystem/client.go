package buildsystem

import "context"

// composite joins the flat RPC client (query + flat submission) with the
// MBS HTTP client (modular submission) into one System, per §9's
// "polymorphic build system" note: call sites see one capability and
// never branch on which wire protocol actually serves a given call.
type composite struct {
	*rpcClient
	mbs *mbsClient
}

// NewDestinationSystem builds the destination's System: RPC for queries
// and flat builds, MBS HTTP for modular builds, both authenticated with
// auth.
func NewDestinationSystem(profile, mbsAPIURL string, dryRun bool, retries int, auth Authenticator) System {
	return &composite{
		rpcClient: NewRPCClient(profile, dryRun, retries, auth).(*rpcClient),
		mbs:       newMBSClient(mbsAPIURL, dryRun, retries, auth),
	}
}

// NewSourceSystem builds the source's System: anonymous RPC queries only.
// SubmitFlat/SubmitModular are never called against a source session
// (§4.2's "source sessions are anonymous"); they still satisfy System so
// one SessionCache can hold both roles uniformly.
func NewSourceSystem(profile string, retries int) System {
	return NewRPCClient(profile, true, retries, nil)
}

// Close logs out the destination credentials when they hold a session
// that can be logged out (Kerberos).
func (c *composite) Close() {
	if closer, ok := c.rpcClient.auth.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (c *composite) SubmitModular(ctx context.Context, scmURL, stream, platform string, opts SubmitOptions) (int64, error) {
	return c.mbs.SubmitModular(ctx, scmURL, stream, platform, opts)
}
