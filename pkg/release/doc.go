// Package release selects the one release of a package that installs on a
// given platform and host version.
//
// A release is eligible when one of its platform tags is "*", the full
// target tag ("windows-x64") or the target's platform ("windows"), and its
// host version [Constraint] is satisfied. [Select] then prefers the highest
// version, the most recent date, the most specific platform and finally the
// first declared release. [SelectPlatform] ignores versions and serves the
// per-platform downloads of schema 1.x manifests.
package release
