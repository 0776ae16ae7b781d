package config

// SiteConfig holds per-site overrides for a single hostname.
// Hosts differ: one needs a specific user agent to serve full markup,
// another should skip its calendar pages. The config file carries these
// so the CLI flags stay global.
type SiteConfig struct {
	// UserAgent overrides the global user agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Cookie is an HTTP cookie header value sent with every request to
	// this site. Format: "name=value" or "name1=value1; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are additional HTTP headers sent with requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global page budget for this site.
	// Zero means the global value applies.
	MaxPages int `yaml:"maxPages,omitempty"`

	// IgnorePatterns are glob patterns matched against discovered URL
	// paths; matching links are never enqueued.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`
}

// File represents the structure of the .sitevault configuration file.
type File struct {
	// Sites maps hostnames to their overrides (e.g. "blog.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every site unless overridden per host.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// SiteFor returns the effective configuration for a hostname, merging the
// host's entry over the file defaults field by field.
func (cf *File) SiteFor(host string) SiteConfig {
	merged := cf.Defaults

	site, ok := cf.Sites[host]
	if !ok {
		return merged
	}
	if site.UserAgent != "" {
		merged.UserAgent = site.UserAgent
	}
	if site.Cookie != "" {
		merged.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		// Copy before merging so the shared defaults map stays untouched.
		headers := make(map[string]string, len(merged.Headers)+len(site.Headers))
		for k, v := range merged.Headers {
			headers[k] = v
		}
		for k, v := range site.Headers {
			headers[k] = v
		}
		merged.Headers = headers
	}
	if site.MaxPages != 0 {
		merged.MaxPages = site.MaxPages
	}
	if len(site.IgnorePatterns) > 0 {
		merged.IgnorePatterns = site.IgnorePatterns
	}
	return merged
}
