package detect

// Pattern tables for the tracking check. The check is a lowercased-body
// substring scan, deliberately permissive: any hit in a set flips its flag.
// Order is fixed; cheap domain matches come first.

var analyticsPatterns = []string{
	// domains
	"googletagmanager.com",
	"google-analytics.com",
	"analytics.google.com",
	// inline calls
	"gtag(",
	"ga('create'",
	"ga(\"create\"",
	"_gaq.push",
	"datalayer.push",
	// script filenames
	"gtag/js",
	"analytics.js",
	"gtm.js",
	// measurement / property ID prefixes, anchored to the quote or
	// key=value context an ID appears in; a bare "g-" would match any
	// hyphenated class name
	"'ua-",
	`"ua-`,
	"=ua-",
	"'g-",
	`"g-`,
	"=g-",
	"'gtm-",
	`"gtm-`,
	"=gtm-",
}

var pixelPatterns = []string{
	// domains
	"connect.facebook.net",
	"facebook.com/tr",
	// inline calls
	"fbq(",
	"fbq('init'",
	"fbq(\"init\"",
	"_fbq",
	// script filenames
	"fbevents.js",
}
