package travelexpense

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Regulations(t *testing.T) {
	srv := newTestBackend(t, time.Hour)
	c := NewClient(srv.URL)
	defer c.Close()
	ctx := context.Background()

	session, err := c.Register(ctx, registerInput())
	require.NoError(t, err)
	c.SetToken(session.AccessToken)

	res, err := c.CreateRegulation(ctx, regulationInput())
	require.NoError(t, err)
	require.NotNil(t, res.Regulation)
	first := res.Regulation

	res, err = c.CreateRegulation(ctx, regulationInput())
	require.NoError(t, err)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, 2, res.Proposal.ProposedRevision)

	second, err := c.ConfirmRevision(ctx, res.Proposal.Token)
	require.NoError(t, err)
	assert.Equal(t, 2, second.RevisionNumber)
	assert.True(t, second.IsLatestVersion)

	regulations, err := c.ListRegulations(ctx, "Acme", false)
	require.NoError(t, err)
	assert.Len(t, regulations, 2)

	latest, err := c.ListRegulations(ctx, "Acme", true)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, second.ID, latest[0].ID)

	history, err := c.RegulationHistory(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	text, err := c.RegulationText(ctx, second.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "令和7年1月1日")

	file, err := c.ExportRegulation(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "出張旅費規程_Acme_v2.txt", file.FileName)
	assert.Equal(t, text, file.Content)

	require.NoError(t, c.DeleteRegulation(ctx, first.ID))

	_, err = c.GetRegulation(ctx, first.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_ValidationError(t *testing.T) {
	srv := newTestBackend(t, time.Hour)
	c := NewClient(srv.URL)
	ctx := context.Background()

	session, err := c.Register(ctx, registerInput())
	require.NoError(t, err)
	c.SetToken(session.AccessToken)

	input := regulationInput()
	input.Positions[0].Name = ""

	_, err = c.CreateRegulation(ctx, input)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "positions[0].name", apiErr.Field)
	assert.Equal(t, "役職名を入力してください", apiErr.Message)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := newTestBackend(t, time.Hour)
	c := NewClient(srv.URL)

	_, err := c.Dashboard(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_Dashboard(t *testing.T) {
	srv := newTestBackend(t, time.Hour)
	c := NewClient(srv.URL)
	ctx := context.Background()

	session, err := c.Register(ctx, registerInput())
	require.NoError(t, err)
	c.SetToken(session.AccessToken)

	data, err := c.Dashboard(ctx)
	require.NoError(t, err)
	require.NotNil(t, data.Profile)
	assert.Equal(t, "加藤 美咲", data.Profile.FullName)
	assert.True(t, data.Stats.ApprovedAmount.IsZero())
	assert.Empty(t, data.Recent)
}
