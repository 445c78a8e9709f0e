package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/enghaven/portal/apps/api/echo"
	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/quiz"
)

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("STORE_ENGINE", "memory")
	t.Setenv("BLOB_ENGINE", "local")
	t.Setenv("BLOB_DIR", t.TempDir())
	t.Setenv("QUIZ_STRICT_QUESTIONS", "true")

	c := New()
	err := c.Invoke(func(conf *core.Config, policy quiz.QuestionsPolicy, server *echoapi.Server) {
		assert.Equal(t, "TEST", conf.Env)
		assert.Equal(t, quiz.Strict, policy)
		assert.NotNil(t, server)
	})
	require.NoError(t, err)
}
