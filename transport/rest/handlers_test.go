package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
	"github.com/rocketscienceinc/gameroom-backend/internal/store"
	"github.com/rocketscienceinc/gameroom-backend/internal/usecase"
)

var (
	alice = entity.Identity{ID: "i1", DisplayName: "Alice"}
	bob   = entity.Identity{ID: "i2", DisplayName: "Bob"}
)

func newTestServer(variant entity.Variant) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	memory := store.NewMemoryStore()
	manager := usecase.NewSessionManager(logger, memory, memory, variant)

	return New(logger, manager).routes()
}

func doRequest(t *testing.T, handler http.Handler, method, target string, identity entity.Identity, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if identity.ID != "" {
		req.Header.Set(headerIdentityID, identity.ID)
		req.Header.Set(headerDisplayName, identity.DisplayName)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func TestServer_Ping(t *testing.T) {
	handler := newTestServer(entity.VariantUnset)

	rec := doRequest(t, handler, http.MethodGet, "/ping", entity.Identity{}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse[map[string]string](t, rec)
	assert.Equal(t, "pong", body["message"])
}

func TestServer_Attach(t *testing.T) {
	t.Run("The first caller creates the session and takes role A", func(t *testing.T) {
		// Given: a fresh server
		handler := newTestServer(entity.VariantUnset)

		// When: an identified caller attaches
		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)

		// Then: the session exists and the caller holds role A
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeResponse[attachResponse](t, rec)
		assert.Equal(t, entity.RoleA, body.Role)
		assert.False(t, body.ReadOnly)
		assert.Equal(t, "i1", body.Session.Slots[entity.RoleA])
	})

	t.Run("A third caller attaches read only", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", bob, nil)

		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", entity.Identity{ID: "i3", DisplayName: "Carol"}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeResponse[attachResponse](t, rec)
		assert.Equal(t, entity.RoleNone, body.Role)
		assert.True(t, body.ReadOnly)
	})

	t.Run("An unidentified caller may not attach", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)

		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", entity.Identity{}, nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestServer_GetSession(t *testing.T) {
	t.Run("A bound session renders its view", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)

		rec := doRequest(t, handler, http.MethodGet, "/sessions/s1/", entity.Identity{}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		view := decodeResponse[usecase.SessionView](t, rec)
		assert.Equal(t, entity.StateUnbound, view.State)
		assert.Equal(t, "Alice", view.Session.Names[entity.RoleA])
	})

	t.Run("An unknown session answers 404", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)

		rec := doRequest(t, handler, http.MethodGet, "/sessions/missing/", entity.Identity{}, nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_GameFlow(t *testing.T) {
	t.Run("A full tic-tac-toe round over the wire", func(t *testing.T) {
		// Given: both players attached and the variant selected
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", bob, nil)

		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/variant", alice, variantRequest{Variant: "tictactoe"})
		require.Equal(t, http.StatusOK, rec.Code)

		// When: the round plays out with role A taking the top row
		moves := []struct {
			identity entity.Identity
			cell     int
		}{
			{alice, 0}, {bob, 3}, {alice, 1}, {bob, 4}, {alice, 2},
		}
		var session *entity.Session
		for _, move := range moves {
			rec = doRequest(t, handler, http.MethodPost, "/sessions/s1/moves", move.identity, moveRequest{Cell: move.cell})
			require.Equal(t, http.StatusOK, rec.Code)
			decoded := decodeResponse[entity.Session](t, rec)
			session = &decoded
		}

		// Then: the final response reports role A's win
		assert.Equal(t, entity.Outcome(entity.RoleA), session.Outcome)

		// Then: a rematch resets the round
		rec = doRequest(t, handler, http.MethodPost, "/sessions/s1/rematch", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		reset := decodeResponse[entity.Session](t, rec)
		assert.Equal(t, entity.OutcomeNone, reset.Outcome)
	})

	t.Run("Rule violations map to 409", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", bob, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/variant", alice, variantRequest{Variant: "tictactoe"})

		// When: role B moves out of turn
		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/moves", bob, moveRequest{Cell: 0})
		require.Equal(t, http.StatusConflict, rec.Code)

		// When: a rematch is requested mid round
		rec = doRequest(t, handler, http.MethodPost, "/sessions/s1/rematch", alice, nil)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Bad input maps to 422 and strangers to 403", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", bob, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/variant", alice, variantRequest{Variant: "tictactoe"})

		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/moves", alice, moveRequest{Cell: 42})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = doRequest(t, handler, http.MethodPost, "/sessions/s1/moves", entity.Identity{ID: "i9"}, moveRequest{Cell: 0})
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = doRequest(t, handler, http.MethodPost, "/sessions/s1/variant", alice, variantRequest{Variant: "checkers"})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("A malformed body answers 400", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)

		req := httptest.NewRequest(http.MethodPost, "/sessions/s1/moves", bytes.NewReader([]byte("{broken")))
		req.Header.Set(headerIdentityID, alice.ID)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_BingoToggles(t *testing.T) {
	t.Run("A toggle marks the caller's card", func(t *testing.T) {
		// Given: a bingo deployment with both players attached
		handler := newTestServer(entity.VariantBingo)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", bob, nil)

		// When: role A toggles a cell on its own card
		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/toggles", alice, toggleRequest{Row: 2, Col: 2})

		// Then: the response shows the mark
		require.Equal(t, http.StatusOK, rec.Code)
		session := decodeResponse[entity.Session](t, rec)
		require.NotNil(t, session.Cards[entity.RoleA])
		assert.True(t, session.Cards[entity.RoleA].Marked[2][2])
	})

	t.Run("Targeting the opponent's card answers 409", func(t *testing.T) {
		handler := newTestServer(entity.VariantBingo)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", bob, nil)

		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/toggles", alice, toggleRequest{Target: "B", Row: 0, Col: 0})

		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestServer_Starter(t *testing.T) {
	t.Run("Variant selection carries the creator's starter choice", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", bob, nil)

		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/variant", alice, variantRequest{Variant: "tictactoe", StartingRole: "B"})

		require.Equal(t, http.StatusOK, rec.Code)
		session := decodeResponse[entity.Session](t, rec)
		assert.Equal(t, entity.RoleB, session.StartingRole)
		assert.Equal(t, entity.RoleB, session.Turn)
	})

	t.Run("Reassigning the starter swaps seats on request", func(t *testing.T) {
		// Given: a concluded tic-tac-toe round
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", bob, nil)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/variant", alice, variantRequest{Variant: "tictactoe"})
		for _, move := range []struct {
			identity entity.Identity
			cell     int
		}{
			{alice, 0}, {bob, 3}, {alice, 1}, {bob, 4}, {alice, 2},
		} {
			doRequest(t, handler, http.MethodPost, "/sessions/s1/moves", move.identity, moveRequest{Cell: move.cell})
		}

		// When: the loser asks to open the next round from the other seat
		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/starter", bob, starterRequest{StartingRole: "B", SwapSeats: true})

		// Then: the seats swapped and role B opens
		require.Equal(t, http.StatusOK, rec.Code)
		session := decodeResponse[entity.Session](t, rec)
		assert.Equal(t, "i2", session.Slots[entity.RoleA])
		assert.Equal(t, "i1", session.Slots[entity.RoleB])
		assert.Equal(t, entity.RoleB, session.Turn)
	})

	t.Run("A bad starting role answers 422", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)

		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/starter", alice, starterRequest{StartingRole: "C"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestServer_Chat(t *testing.T) {
	t.Run("Posting and listing round trip", func(t *testing.T) {
		// Given: a session with one attached player
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)

		// When: a text message and a sticker are posted
		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/chat", alice, messageRequest{Kind: "text", Payload: "good luck!"})
		require.Equal(t, http.StatusCreated, rec.Code)
		posted := decodeResponse[entity.ChatMessage](t, rec)
		assert.NotEmpty(t, posted.ID)

		rec = doRequest(t, handler, http.MethodPost, "/sessions/s1/chat", bob, messageRequest{Kind: "sticker", Payload: "gg"})
		require.Equal(t, http.StatusCreated, rec.Code)

		// Then: the log lists both in order
		rec = doRequest(t, handler, http.MethodGet, "/sessions/s1/chat", entity.Identity{}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		messages := decodeResponse[[]entity.ChatMessage](t, rec)
		require.Len(t, messages, 2)
		assert.Equal(t, "good luck!", messages[0].Text)
		assert.Equal(t, "gg", messages[1].Sticker)
	})

	t.Run("Gated content answers 422", func(t *testing.T) {
		handler := newTestServer(entity.VariantUnset)
		doRequest(t, handler, http.MethodPost, "/sessions/s1/attach", alice, nil)

		rec := doRequest(t, handler, http.MethodPost, "/sessions/s1/chat", alice, messageRequest{Kind: "text", Payload: "https://spam.example"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
