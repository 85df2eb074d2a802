package harvest

import (
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Region is one harvest partition: the short alias written to the record set
// and the full name the endpoint filters on.
type Region struct {
	Alias string `yaml:"alias" json:"alias"`
	Name  string `yaml:"name" json:"name"`
}

var defaultRegions = []Region{
	{"서울", "서울특별시"},
	{"경기", "경기도"},
	{"인천", "인천광역시"},
	{"강원", "강원특별자치도"},
	{"충남", "충청남도"},
	{"충북", "충청북도"},
	{"대전", "대전광역시"},
	{"세종", "세종특별자치시"},
	{"부산", "부산광역시"},
	{"울산", "울산광역시"},
	{"대구", "대구광역시"},
	{"경북", "경상북도"},
	{"경남", "경상남도"},
	{"전남", "전라남도"},
	{"광주", "광주광역시"},
	{"전북", "전북특별자치도"},
	{"제주", "제주특별자치도"},
}

// DefaultRegions returns the 17 first-level administrative regions in
// harvest order.
func DefaultRegions() []Region {
	out := make([]Region, len(defaultRegions))
	copy(out, defaultRegions)
	return out
}

type regionsFile struct {
	Regions []Region `yaml:"regions"`
}

// LoadRegions reads a region table from a YAML file of the form
//
//	regions:
//	  - alias: 서울
//	    name: 서울특별시
//
// An empty path returns DefaultRegions.
func LoadRegions(path string) ([]Region, error) {
	if path == "" {
		return DefaultRegions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "harvest: read regions file %s", path)
	}

	var f regionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "harvest: parse regions file %s", path)
	}
	if len(f.Regions) == 0 {
		return nil, eris.Errorf("harvest: regions file %s lists no regions", path)
	}

	seen := make(map[string]bool, len(f.Regions))
	for i, r := range f.Regions {
		r.Alias = strings.TrimSpace(r.Alias)
		r.Name = strings.TrimSpace(r.Name)
		if r.Alias == "" || r.Name == "" {
			return nil, eris.Errorf("harvest: regions file %s: entry %d needs alias and name", path, i+1)
		}
		if seen[r.Alias] {
			return nil, eris.Errorf("harvest: regions file %s: duplicate alias %q", path, r.Alias)
		}
		seen[r.Alias] = true
		f.Regions[i] = r
	}
	return f.Regions, nil
}

// SelectRegions keeps the regions whose alias is listed, in table order.
// No aliases selects everything. Unknown aliases are an error.
func SelectRegions(all []Region, aliases []string) ([]Region, error) {
	if len(aliases) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		want[strings.TrimSpace(a)] = true
	}

	var out []Region
	for _, r := range all {
		if want[r.Alias] {
			out = append(out, r)
			delete(want, r.Alias)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for a := range want {
			unknown = append(unknown, a)
		}
		slices.Sort(unknown)
		return nil, eris.Errorf("harvest: unknown region alias(es): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
