package observe

import (
	"testing"

	"storefront/internal/testutil"
)

func TestNoBackendImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.BackendImportForbidden, "observe depends on kv.Store only")
}
