package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	_ "github.com/o-tomin/secret-company-role-based-feature-access-app/testing"
)

func TestClientEnqueueConfigRefresh(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer func() {
		require.NoError(t, client.Close())
	}()

	info, err := client.EnqueueConfigRefresh(context.Background(), "startup")
	require.NoError(t, err)
	require.Equal(t, TaskConfigRefresh, info.Type)
	require.Equal(t, QueueDefault, info.Queue)

	var payload ConfigRefreshPayload
	require.NoError(t, json.Unmarshal(info.Payload, &payload))
	require.Equal(t, "startup", payload.Reason)
}
