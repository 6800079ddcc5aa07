package version

import "testing"

func TestParse(t *testing.T) {
	defer parse(appBuild)

	tests := []struct {
		build      string
		want       string
		custom     bool
		prerelease bool
		dirty      bool
	}{
		{"pktsign-v1.2.3", "1.2.3", false, false, false},
		{"pktsign-v1.2.3-19-gfa3ba767", "1.2.3-fa3ba767", false, true, false},
		{"pktsign-v1.2.3-dirty", "1.2.3-dirty", false, false, true},
		{"something-else", "0.0.0-custom", true, false, false},
	}
	for _, test := range tests {
		appMajor, appMinor, appPatch = 0, 0, 0
		custom, prerelease, dirty = true, false, false
		parse(test.build)
		if Version() != test.want || IsCustom() != test.custom ||
			IsPrerelease() != test.prerelease || IsDirty() != test.dirty {

			t.Errorf("%s: got %s custom=%v prerelease=%v dirty=%v", test.build,
				Version(), IsCustom(), IsPrerelease(), IsDirty())
		}
	}
}
