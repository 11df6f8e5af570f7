package api

// IdentifyProperties is the client-identity descriptor block carried in the
// identify handshake. The key set is fixed by the remote protocol.
type IdentifyProperties struct {
	Browser                string  `json:"browser"`
	BrowserUserAgent       string  `json:"browser_user_agent"`
	BrowserVersion         string  `json:"browser_version"`
	ClientBuildNumber      int     `json:"client_build_number"`
	ClientEventSource      *string `json:"client_event_source"`
	Device                 string  `json:"device"`
	OS                     string  `json:"os"`
	OSVersion              string  `json:"os_version"`
	Referrer               string  `json:"referrer"`
	ReferrerCurrent        string  `json:"referrer_current"`
	ReferringDomain        string  `json:"referring_domain"`
	ReferringDomainCurrent string  `json:"referring_domain_current"`
	ReleaseChannel         string  `json:"release_channel"`
	SystemLocale           string  `json:"system_locale"`
}

// Session is the owning client handle passed to every patch callback.
// Patches read configuration from it instead of global state. One Session
// is created per client at startup and shared by both interceptors.
type Session struct {
	// Token authenticates both transports. Sent verbatim on the REST
	// Authorization header and in the identify payload.
	Token string

	// UserAgent is injected on every outgoing HTTP-shaped request.
	UserAgent string

	// Capabilities is the client-capability bitmask written into the
	// identify handshake. Zero means "use the patch set default".
	Capabilities int

	// Properties is the spoofed identity block for the identify handshake.
	Properties IdentifyProperties

	// ApplicationID is the placeholder application identity injected into
	// the ready payload; spoofed connections do not receive one natively.
	ApplicationID string
}
