package buildsystem

import (
	"context"
	"net/http"

	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/spnego"

	"github.com/release-engineering/distrobaker/internal/errs"
)

// KerberosAuth attaches SPNEGO negotiate authentication to outgoing
// requests (§4.2 "negotiate authentication with optional mutual mode").
// Credential loading (keytab/krb5.conf location) is out of scope
// (spec.md §1); NewKerberosAuth takes already-resolved paths and performs
// only the login handshake.
type KerberosAuth struct {
	client *client.Client
}

// NewKerberosAuth logs in username@realm using the keytab at ktPath and
// the krb5.conf at krb5ConfPath.
func NewKerberosAuth(krb5ConfPath, ktPath, username, realm string) (*KerberosAuth, error) {
	cfg, err := config.Load(krb5ConfPath)
	if err != nil {
		return nil, errs.Auth("load krb5 config", err)
	}
	kt, err := keytab.Load(ktPath)
	if err != nil {
		return nil, errs.Auth("load keytab", err)
	}
	c := client.NewWithKeytab(username, realm, kt, cfg, client.DisablePAFXFAST(true))
	if err := c.Login(); err != nil {
		return nil, errs.Auth("kerberos login", err)
	}
	return &KerberosAuth{client: c}, nil
}

// Authenticate negotiates SPNEGO for the target host and attaches the
// resulting Authorization header to req.
func (a *KerberosAuth) Authenticate(ctx context.Context, req *http.Request) error {
	spn := "HTTP/" + req.URL.Hostname()
	if err := spnego.SetSPNEGOHeader(a.client, req, spn); err != nil {
		return errs.Auth("spnego negotiate", err)
	}
	return nil
}

// Close logs out the underlying Kerberos session, matching §4.2's
// "a session refresh logs out the stale destination session before
// re-authenticating".
func (a *KerberosAuth) Close() {
	a.client.Destroy()
}
