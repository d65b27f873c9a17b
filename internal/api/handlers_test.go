package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/academiax/internal/auth"
	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/storage"
)

const sampleQuestions = `{
  "mcq": [{"question": "2+2?", "options": ["1","2","3","4"], "correct": "4"}],
  "trueFalse": [{"question": "Water is wet", "answer": true}],
  "short": [{"question": "Capital of France?", "answer": "Paris"}]
}`

func TestIssueToken(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/jwt", `{"email":"a@x.io"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	id, err := env.app.Verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", id.Email)

	for _, bad := range []string{``, `{}`, `{"email":"  "}`, `{"email":`} {
		rec := env.do(http.MethodPost, "/jwt", bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", bad)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/logout", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestTasks_OwnerScenario(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/jwt", `{"email":"a@x.io"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Result().Cookies()[0].Value

	rec = env.do(http.MethodPost, "/tasks", `{"email":"a@x.io","title":"Read chapter 3"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := dataOf(t, rec)
	taskID, _ := created["_id"].(string)
	require.True(t, storage.ValidID(taskID))
	assert.Equal(t, false, created["completed"])
	assert.NotEmpty(t, created["createdAt"])

	rec = env.do(http.MethodPost, "/tasks", `{"email":"b@x.io","title":"Not yours"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/tasks?email=a@x.io", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := listOf(t, rec)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Read chapter 3", tasks[0].(map[string]any)["title"])

	rec = env.do(http.MethodGet, "/tasks?email=b@x.io", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ownershipMessage, decodeBody(t, rec)["message"])

	rec = env.do(http.MethodGet, "/tasks/"+taskID+"?email=a@x.io", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, taskID, dataOf(t, rec)["_id"])
}

func TestTasks_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.seed(domain.CollectionTasks, storage.Document{"email": "a@x.io", "title": "Draft", "completed": false})
	path := "/tasks/" + id

	rec := env.do(http.MethodPut, path, `{"completed":true}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is required", decodeBody(t, rec)["message"])

	rec = env.do(http.MethodPut, path, `{"email":"b@x.io","completed":true}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, taskNotFound, decodeBody(t, rec)["message"])

	rec = env.do(http.MethodPut, path, `{"email":"a@x.io","completed":true,"title":"Final"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := dataOf(t, rec)
	assert.Equal(t, true, updated["completed"])
	assert.Equal(t, "Final", updated["title"])
	assert.Equal(t, "a@x.io", updated["email"])

	rec = env.do(http.MethodPut, "/tasks/not-an-id", `{"email":"a@x.io"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodDelete, path, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodDelete, path+"?email=b@x.io", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, env.count(domain.CollectionTasks))

	rec = env.do(http.MethodDelete, path+"?email=a@x.io", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Task deleted successfully", body["message"])
	assert.Equal(t, 0, env.count(domain.CollectionTasks))

	assert.Equal(t, []string{"task.updated", "task.deleted"}, env.publisher.Types())
}

func TestTasks_CreateRequiresEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/tasks", `{"title":"orphan"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is required", decodeBody(t, rec)["message"])

	rec = env.do(http.MethodPost, "/tasks", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.count(domain.CollectionTasks))
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No users found", decodeBody(t, rec)["message"])

	rec = env.do(http.MethodPost, "/users", `{"email":"a@x.io","name":"Ada"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := dataOf(t, rec)
	assert.NotEmpty(t, first["_id"])
	assert.NotEmpty(t, first["createdAt"])
	assert.NotEmpty(t, first["last_log_in"])

	rec = env.do(http.MethodPost, "/users", `{"email":"a@x.io","name":"Someone else"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User exists", body["message"])
	existing := body["data"].(map[string]any)
	assert.Equal(t, first["_id"], existing["_id"])
	assert.Equal(t, "Ada", existing["name"])
	assert.Equal(t, 1, env.count(domain.CollectionUsers))

	rec = env.do(http.MethodPost, "/users", `{"name":"nobody"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/users", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, listOf(t, rec), 1)

	assert.Equal(t, []string{"user.created"}, env.publisher.Types())
}

func TestClasses(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token("a@x.io")

	rec := env.do(http.MethodPost, "/class", `{"name":"Algebra"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/class", `{"email":"a@x.io","name":"Algebra","day":"Mon"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id, _ := dataOf(t, rec)["_id"].(string)
	require.NotEmpty(t, id)
	env.seed(domain.CollectionClasses, storage.Document{"email": "b@x.io", "name": "Biology"})

	rec = env.do(http.MethodGet, "/class?email=a@x.io", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	classes := listOf(t, rec)
	require.Len(t, classes, 1)
	assert.Equal(t, "Algebra", classes[0].(map[string]any)["name"])

	rec = env.do(http.MethodGet, "/class/"+id+"?email=a@x.io", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mon", dataOf(t, rec)["day"])

	rec = env.do(http.MethodDelete, "/class/"+id, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"acknowledged": true, "deletedCount": float64(1)}, decodeBody(t, rec))

	rec = env.do(http.MethodDelete, "/class/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, env.count(domain.CollectionClasses))

	rec = env.do(http.MethodGet, "/class/xyz?email=a@x.io", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetByID_Owned(t *testing.T) {
	env := newTestEnv(t, nil)
	classID := env.seed(domain.CollectionClasses, storage.Document{"email": "victim@x.io", "name": "secret"})
	budgetID := env.seed(domain.CollectionBudgets, storage.Document{"email": "victim@x.io", "amount": 999})
	attacker := env.token("attacker@x.io")
	victim := env.token("victim@x.io")

	for _, path := range []string{"/class/" + classID, "/budgets/" + budgetID} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(http.MethodGet, path+"?email=victim@x.io", "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = env.do(http.MethodGet, path+"?email=victim@x.io", "", attacker)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, ownershipMessage, decodeBody(t, rec)["message"])

			rec = env.do(http.MethodGet, path+"?email=attacker@x.io", "", attacker)
			assert.Equal(t, http.StatusNotFound, rec.Code)

			rec = env.do(http.MethodGet, path+"?email=victim@x.io", "", victim)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "victim@x.io", dataOf(t, rec)["email"])
		})
	}
}

func TestBudgets(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token("a@x.io")

	rec := env.do(http.MethodGet, "/budgets", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = env.do(http.MethodPost, "/budgets", `{"email":"a@x.io","category":"Books","amount":40}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	inserted := dataOf(t, rec)
	assert.Equal(t, true, inserted["acknowledged"])
	id, _ := inserted["insertedId"].(string)
	require.True(t, storage.ValidID(id))
	env.seed(domain.CollectionBudgets, storage.Document{"email": "b@x.io", "category": "Food", "amount": 12})

	rec = env.do(http.MethodGet, "/budgets?email=a@x.io", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Books", list[0]["category"])

	rec = env.do(http.MethodPatch, "/budgets/"+id, `{"_id":"ignored","amount":55}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Budget updated successfully", body["message"])
	result := body["data"].(map[string]any)
	assert.Equal(t, float64(1), result["matchedCount"])
	assert.Equal(t, float64(1), result["modifiedCount"])
	assert.Nil(t, result["upsertedId"])

	rec = env.do(http.MethodGet, "/budgets/"+id+"?email=a@x.io", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	budget := dataOf(t, rec)
	assert.Equal(t, float64(55), budget["amount"])
	assert.Equal(t, id, budget["_id"])

	missing := storage.NewID()
	rec = env.do(http.MethodPut, "/budgets/"+missing, `{"amount":1}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Budget not found", decodeBody(t, rec)["message"])

	rec = env.do(http.MethodDelete, "/budgets/bad", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid budget ID format", decodeBody(t, rec)["message"])

	rec = env.do(http.MethodDelete, "/budgets/"+missing, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 2, env.count(domain.CollectionBudgets))

	rec = env.do(http.MethodDelete, "/budgets/"+id, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "Budget deleted successfully", body["message"])
	assert.Equal(t, float64(1), body["data"].(map[string]any)["deletedCount"])
	assert.Equal(t, 1, env.count(domain.CollectionBudgets))

	assert.Equal(t, []string{"budget.created", "budget.updated", "budget.deleted"}, env.publisher.Types())
}

func TestGenerateQuestions(t *testing.T) {
	env := newTestEnv(t, nil)
	env.provider.reply = sampleQuestions

	rec := env.do(http.MethodPost, "/generate-questions", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Topic required", decodeBody(t, rec)["message"])
	assert.Equal(t, 0, env.provider.calls)

	rec = env.do(http.MethodPost, "/generate-questions", `{"topic":"Arithmetic"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataOf(t, rec)
	assert.Len(t, data["mcq"], 1)
	assert.Len(t, data["trueFalse"], 1)
	assert.Len(t, data["short"], 1)

	rec = env.do(http.MethodGet, "/questions?topic=Arithmetic", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sets := listOf(t, rec)
	require.Len(t, sets, 1)
	assert.Equal(t, "Arithmetic", sets[0].(map[string]any)["topic"])

	env.provider.reply = "this is not json"
	rec = env.do(http.MethodPost, "/generate-questions", `{"topic":"History"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, env.count(domain.CollectionQuestions))

	assert.Equal(t, []string{"question_set.generated"}, env.publisher.Types())
}

func TestChat(t *testing.T) {
	env := newTestEnv(t, nil)
	env.provider.reply = "Try the Algebra class."

	rec := env.do(http.MethodPost, "/ai-chat", `{"message":""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message is required", decodeBody(t, rec)["message"])

	rec = env.do(http.MethodPost, "/ai-chat", `{"message":"What should I study?"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Try the Algebra class.", body["reply"])

	env.provider.err = errors.New("provider unavailable")
	rec = env.do(http.MethodPost, "/ai-chat", `{"message":"hello"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "provider unavailable")
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	env.publisher.err = errors.New("broker down")

	rec := env.do(http.MethodPost, "/tasks", `{"email":"a@x.io","title":"t"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.count(domain.CollectionTasks))
}
