// Package neighborhoods holds the static reference list of Jerusalem
// neighborhoods a listing or profile may use.
package neighborhoods

// Jerusalem is the canonical neighborhood list, alphabetical.
var Jerusalem = []string{
	"Abu Tor",
	"Arnona",
	"Baka",
	"Bayit VeGan",
	"Beit HaKerem",
	"City Center",
	"Ein Karem",
	"French Hill",
	"German Colony",
	"Gilo",
	"Givat Mordechai",
	"Greek Colony",
	"Har Homa",
	"Katamon",
	"Kiryat HaYovel",
	"Kiryat Moshe",
	"Malha",
	"Mea Shearim",
	"Mekor Baruch",
	"Musrara",
	"Nachlaot",
	"Nayot",
	"Old City",
	"Pisgat Zeev",
	"Ramat Eshkol",
	"Ramat Shlomo",
	"Ramot",
	"Rehavia",
	"Romema",
	"Talbiya",
	"Talpiot",
	"Yemin Moshe",
}

var known = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Jerusalem))
	for _, n := range Jerusalem {
		m[n] = struct{}{}
	}
	return m
}()

// Valid reports whether name is a known neighborhood. The empty string
// is accepted: a profile without a neighborhood is allowed, it just
// never matches a neighborhood filter.
func Valid(name string) bool {
	if name == "" {
		return true
	}
	_, ok := known[name]
	return ok
}
