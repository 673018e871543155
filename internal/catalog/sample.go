// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package catalog

// SampleCatalog returns a catalog template with placeholder addresses.
// Written by `vigil targets init`; users replace the addresses with their
// own deployments before running an audit.
func SampleCatalog() []byte {
	return []byte(`# vigil target catalog
#
# Each entry binds a deployed program address to a capability profile.
# Profiles: app_factory, estate, swap, token_vault.
# Replace the placeholder addresses with your deployment before auditing.
programs:
  - name: app_factory
    address: "11111111111111111111111111111111"
    profile: app_factory
    accounts:
      platform_config: "11111111111111111111111111111111"
  - name: swap
    address: "11111111111111111111111111111111"
    profile: swap
    accounts:
      pool: "11111111111111111111111111111111"
  - name: estate
    address: "11111111111111111111111111111111"
    profile: estate
    accounts:
      estate: "11111111111111111111111111111111"
      vault: "11111111111111111111111111111111"
`)
}
