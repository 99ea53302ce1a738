// Copyright 2026 Crewlens Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package layout defines the per-tenant on-disk layout.
//
// Every tenant owns two trees under the base directory:
//
//	<base>/db/<tenant-key>/          one vector index directory per dataset
//	<base>/metadata/<tenant-key>/    table snapshots and datasets.json
//
// Tenant names are sanitized into filesystem-safe keys, so an email
// address or a display name with spaces is a valid tenant identifier.
package layout

import (
	"os"
	"path/filepath"
	"strings"
)

const registryFileName = "datasets.json"

// Layout maps tenants to their storage paths under a base directory.
// The zero value is not usable; construct with New.
type Layout struct {
	baseDir string
}

// New creates a Layout rooted at baseDir. The directory itself is
// created lazily by EnsureTenant.
func New(baseDir string) Layout {
	return Layout{baseDir: baseDir}
}

// BaseDir returns the layout's root directory.
func (l Layout) BaseDir() string {
	return l.baseDir
}

// TenantKey converts a tenant name into a filesystem-safe key.
// Spaces, "@" and "." become underscores.
func (l Layout) TenantKey(tenant string) string {
	r := strings.NewReplacer(" ", "_", "@", "_", ".", "_")
	return r.Replace(tenant)
}

// VectorRoot returns the directory that holds all of a tenant's vector
// index directories.
func (l Layout) VectorRoot(tenant string) string {
	return filepath.Join(l.baseDir, "db", l.TenantKey(tenant))
}

// MetadataDir returns the directory that holds a tenant's table
// snapshots and registry file.
func (l Layout) MetadataDir(tenant string) string {
	return filepath.Join(l.baseDir, "metadata", l.TenantKey(tenant))
}

// RegistryPath returns the path of a tenant's registry file.
func (l Layout) RegistryPath(tenant string) string {
	return filepath.Join(l.MetadataDir(tenant), registryFileName)
}

// EnsureTenant creates the tenant's vector and metadata directories if
// they do not yet exist.
func (l Layout) EnsureTenant(tenant string) error {
	if err := os.MkdirAll(l.VectorRoot(tenant), 0755); err != nil {
		return err
	}
	return os.MkdirAll(l.MetadataDir(tenant), 0755)
}
