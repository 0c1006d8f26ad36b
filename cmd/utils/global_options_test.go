package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
)

func Test_GlobalOptionsType_PopulateCrashTrackerOptions(t *testing.T) {
	globalOptions := GlobalOptionsType{
		SentryDSN:   "test-sentry-dsn",
		Environment: "test-environment",
		GitCommit:   "test-git-commit",
	}

	t.Run("CrashTrackerType is not Sentry", func(t *testing.T) {
		crashTrackerOptions := crashtracker.CrashTrackerOptions{}
		globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)

		wantCrashTrackerOptions := crashtracker.CrashTrackerOptions{
			Environment: "test-environment",
			GitCommit:   "test-git-commit",
		}
		assert.Equal(t, wantCrashTrackerOptions, crashTrackerOptions)
	})

	t.Run("CrashTrackerType is Sentry", func(t *testing.T) {
		crashTrackerOptions := crashtracker.CrashTrackerOptions{
			CrashTrackerType: crashtracker.CrashTrackerTypeSentry,
		}
		globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)

		wantCrashTrackerOptions := crashtracker.CrashTrackerOptions{
			CrashTrackerType: crashtracker.CrashTrackerTypeSentry,
			SentryDSN:        "test-sentry-dsn",
			Environment:      "test-environment",
			GitCommit:        "test-git-commit",
		}
		assert.Equal(t, wantCrashTrackerOptions, crashTrackerOptions)
	})
}
