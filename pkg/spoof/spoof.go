// Package spoof is the default patch bundle installed at startup. It is
// configuration data over the patch mechanism: identity spoofing on the
// connect handshake, a gateway-info redirect with synthesized
// session-limit fields, an authorization rewrite for one route, and a
// sanitized ready payload.
package spoof

import (
	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/patch"
)

const (
	// Capabilities is the client-capability bitmask reported on identify,
	// matching the interactive client being mimicked.
	Capabilities = 4093

	// DefaultUserAgent mimics a common desktop browser build. It goes on
	// every outgoing HTTP-shaped request and into the identify
	// properties.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	defaultBrowser        = "Chrome"
	defaultBrowserVersion = "124.0.0.0"
	defaultBuildNumber    = 291963
	defaultOS             = "Windows"
	defaultOSVersion      = "10"
	defaultReleaseChannel = "stable"
	defaultLocale         = "en-US"

	// placeholderApplicationID fills the application block on ready when
	// the session has no configured application identity.
	placeholderApplicationID = "0"

	readyEvent = "READY"

	routeGatewayBot  = "/gateway/bot"
	routeGateway     = "/gateway"
	routeUserProfile = "/users/{:id}/"
)

// DefaultProperties returns the spoofed identity descriptor block for the
// identify handshake.
func DefaultProperties() api.IdentifyProperties {
	return api.IdentifyProperties{
		Browser:           defaultBrowser,
		BrowserUserAgent:  DefaultUserAgent,
		BrowserVersion:    defaultBrowserVersion,
		ClientBuildNumber: defaultBuildNumber,
		OS:                defaultOS,
		OSVersion:         defaultOSVersion,
		ReleaseChannel:    defaultReleaseChannel,
		SystemLocale:      defaultLocale,
	}
}

// NewSession builds a session pre-populated with the spoofed identity.
func NewSession(token string) *api.Session {
	return &api.Session{
		Token:        token,
		UserAgent:    DefaultUserAgent,
		Capabilities: Capabilities,
		Properties:   DefaultProperties(),
	}
}

// Install seeds a registry with the default patch set. Later installs for
// the same keys replace these entries wholesale.
func Install(reg *patch.Registry) {
	reg.InstallPacket(api.OpIdentify, patch.Packet{Outbound: identifyOutbound})
	reg.InstallEvent(readyEvent, patch.Event{Inbound: readyInbound})
	reg.InstallRoute(routeGatewayBot, patch.Route{
		Redirect: routeGateway,
		Post:     gatewayInfoPost,
	})
	reg.InstallRoute(routeUserProfile, patch.Route{
		Resolve: stripBearerResolve,
	})
}
