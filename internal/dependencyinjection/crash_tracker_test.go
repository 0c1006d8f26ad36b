package dependencyinjection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
)

func Test_NewCrashTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a dry-run client and reuses it", func(t *testing.T) {
		ClearInstancesTestHelper(t)
		defer ClearInstancesTestHelper(t)

		opts := crashtracker.CrashTrackerOptions{CrashTrackerType: crashtracker.CrashTrackerTypeDryRun}

		client1, err := NewCrashTracker(ctx, opts)
		require.NoError(t, err)
		client2, err := NewCrashTracker(ctx, opts)
		require.NoError(t, err)

		assert.Same(t, client1, client2)
	})

	t.Run("returns an error on an invalid pre-existing instance", func(t *testing.T) {
		ClearInstancesTestHelper(t)
		defer ClearInstancesTestHelper(t)

		instanceName := buildCrashTrackerInstanceName(crashtracker.CrashTrackerTypeDryRun)
		SetInstance(instanceName, "not-a-crash-tracker")

		client, err := NewCrashTracker(ctx, crashtracker.CrashTrackerOptions{CrashTrackerType: crashtracker.CrashTrackerTypeDryRun})
		assert.Nil(t, client)
		assert.EqualError(t, err, "trying to cast a crash tracker instance")
	})

	t.Run("returns an error on an unknown crash tracker type", func(t *testing.T) {
		ClearInstancesTestHelper(t)
		defer ClearInstancesTestHelper(t)

		client, err := NewCrashTracker(ctx, crashtracker.CrashTrackerOptions{CrashTrackerType: "UNKNOWN"})
		assert.Nil(t, client)
		assert.ErrorContains(t, err, "creating a new crash tracker instance")
	})
}
