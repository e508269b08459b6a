package advisory

import (
	"strings"

	apkVer "github.com/knqyf263/go-apk-version"
	debVer "github.com/knqyf263/go-deb-version"
	rpmVer "github.com/knqyf263/go-rpm-version"
	"github.com/pkg/errors"

	"github.com/project-copacetic/nessus/pkg/types"
)

// Comparators
const (
	schemeDeb = "deb"
	schemeRPM = "rpm"
	schemeAPK = "apk"
)

// OS tag fragments of RPM based distributions.
var rpmDistros = []string{"centos", "red hat", "rhel", "fedora", "amazon", "suse", "oracle linux", "rocky", "alma"}

// scheme picks the version ordering for an advisory found on a host running os.
func scheme(a types.Advisory, os string) string {
	switch a.Ecosystem {
	case EcosystemRPM, EcosystemJava:
		return schemeRPM
	}
	os = strings.ToLower(os)
	if strings.Contains(os, "alpine") {
		return schemeAPK
	}
	for _, d := range rpmDistros {
		if strings.Contains(os, d) {
			return schemeRPM
		}
	}
	// Unknown OS: Debian prints name_version, RPM prints name-version-release.
	if !strings.Contains(a.OldVersion, "_") && trimPackageName(a.OldVersion) != a.OldVersion {
		return schemeRPM
	}
	return schemeDeb
}

// Verify reports whether a's fixed version sorts strictly after its installed
// version. Values printed as package names with a version suffix are split
// before comparison.
func Verify(a types.Advisory, os string) (bool, error) {
	switch scheme(a, os) {
	case schemeRPM:
		oldV, newV := a.OldVersion, a.NewVersion
		if a.Ecosystem != EcosystemJava {
			oldV, newV = trimPackageName(oldV), trimPackageName(newV)
		}
		nv := rpmVer.NewVersion(newV)
		return nv.GreaterThan(rpmVer.NewVersion(oldV)), nil
	case schemeAPK:
		oldV, err := apkVer.NewVersion(trimPackageName(a.OldVersion))
		if err != nil {
			return false, errors.Wrapf(err, "invalid apk version %s", a.OldVersion)
		}
		newV, err := apkVer.NewVersion(trimPackageName(a.NewVersion))
		if err != nil {
			return false, errors.Wrapf(err, "invalid apk version %s", a.NewVersion)
		}
		return newV.GreaterThan(oldV), nil
	default:
		oldV, err := debVer.NewVersion(trimDebName(a.OldVersion))
		if err != nil {
			return false, errors.Wrapf(err, "invalid deb version %s", a.OldVersion)
		}
		newV, err := debVer.NewVersion(trimDebName(a.NewVersion))
		if err != nil {
			return false, errors.Wrapf(err, "invalid deb version %s", a.NewVersion)
		}
		return newV.GreaterThan(oldV), nil
	}
}

// trimDebName strips the "name_" prefix of a Debian package_version string.
func trimDebName(s string) string {
	if _, v, ok := strings.Cut(s, "_"); ok {
		return v
	}
	return s
}

// trimPackageName strips the name of a name-version-release string.
func trimPackageName(s string) string {
	i := strings.LastIndex(s, "-")
	if i <= 0 {
		return s
	}
	j := strings.LastIndex(s[:i], "-")
	if j < 0 {
		return s
	}
	return s[j+1:]
}
