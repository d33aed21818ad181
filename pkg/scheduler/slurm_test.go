package scheduler

import (
	"context"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTable = CommandTable{Submit: "sbatch", Status: "squeue", History: "sacct"}

func TestActiveStatuses(t *testing.T) {
	var gotName string
	var gotArgs []string
	client := NewSlurmClient(testTable, nil, WithRunner(
		func(_ context.Context, name string, args ...string) (string, string, error) {
			gotName = name
			gotArgs = args
			return "4821,RUNNING\n4822,PD\n", "", nil
		}))

	statuses, err := client.ActiveStatuses(context.Background(), []string{"4821", "4822"})
	require.NoError(t, err)

	assert.Equal(t, "squeue", gotName)
	assert.Equal(t, []string{"--jobs=4821,4822", "--noheader", "--format=%i,%T"}, gotArgs)
	assert.Equal(t, map[string]Status{
		"4821": StatusRunning,
		"4822": StatusPending,
	}, statuses)
}

func TestActiveStatusesEmptyBatch(t *testing.T) {
	client := NewSlurmClient(testTable, nil, WithRunner(
		func(_ context.Context, _ string, _ ...string) (string, string, error) {
			t.Fatal("no invocation expected for an empty batch")
			return "", "", nil
		}))

	statuses, err := client.ActiveStatuses(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestActiveStatusesToleratesNonZeroExitWithOutput(t *testing.T) {
	// squeue exits non-zero when asked about ids it has already forgotten.
	client := NewSlurmClient(testTable, nil, WithRunner(
		func(_ context.Context, _ string, _ ...string) (string, string, error) {
			return "4821,R\n", "slurm_load_jobs error: Invalid job id specified", fmt.Errorf("exit status 1")
		}))

	statuses, err := client.ActiveStatuses(context.Background(), []string{"4821", "9999"})
	require.NoError(t, err)
	assert.Equal(t, map[string]Status{"4821": StatusRunning}, statuses)
}

func TestFinalStatuses(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want map[string]Status
	}{
		{
			name: "pipe delimited with job steps",
			out:  "4821|COMPLETED|0:0\n4821.batch|COMPLETED|0:0\n4822|FAILED|1:0\n",
			want: map[string]Status{"4821": StatusCompleted, "4822": StatusFailed},
		},
		{
			name: "whitespace delimited",
			out:  "4821   CANCELLED by 1000   0:0\n",
			want: map[string]Status{"4821": StatusCancelled},
		},
		{
			name: "step row only still matches by prefix",
			out:  "4821.batch|TIMEOUT|0:0\n",
			want: map[string]Status{"4821": StatusTimeout},
		},
		{
			name: "absent job stays absent",
			out:  "\n",
			want: map[string]Status{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewSlurmClient(testTable, nil, WithRunner(
				func(_ context.Context, name string, args ...string) (string, string, error) {
					assert.Equal(t, "sacct", name)
					return tt.out, "", nil
				}))

			statuses, err := client.FinalStatuses(context.Background(), []string{"4821", "4822"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, statuses)
		})
	}
}

func TestInvokeMissingBinary(t *testing.T) {
	client := NewSlurmClient(testTable, nil, WithRunner(
		func(_ context.Context, _ string, _ ...string) (string, string, error) {
			return "", "", fmt.Errorf("wrapped: %w", exec.ErrNotFound)
		}))

	_, err := client.ActiveStatuses(context.Background(), []string{"4821"})
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "squeue", unavailable.Command)
	assert.Contains(t, unavailable.Error(), "login node")
}
