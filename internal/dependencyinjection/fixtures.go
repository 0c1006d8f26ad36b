package dependencyinjection

import "testing"

// ClearInstancesTestHelper wipes the instance store between tests.
func ClearInstancesTestHelper(t *testing.T) {
	t.Helper()

	m.Lock()
	defer m.Unlock()
	dependenciesStore = make(map[string]interface{})
}
