// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authapi_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rkids-tui/internal/authapi"
	"github.com/jeranaias/rkids-tui/internal/demoauth"
	"github.com/jeranaias/rkids-tui/internal/identity"
)

func TestAgainstDemoService(t *testing.T) {
	srv, err := demoauth.New(demoauth.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	client := authapi.New(ts.URL+"/api").WithRateLimit(0, 0)
	ctx := context.Background()

	login, err := client.Login(ctx, "parent@rkids.church", demoauth.DemoPassword)
	require.NoError(t, err)
	require.True(t, login.RequiresSecondFactor)
	require.Len(t, login.DemoCode, 6)

	verified, err := client.VerifySecondFactor(ctx, login.DemoCode, login.PreAuthToken)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleParent, verified.Identity.Role)

	client.WithCredentialSource(func() identity.Credential { return verified.Credential })
	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, verified.Identity.ID, me.ID)

	require.NoError(t, client.Logout(ctx, verified.Credential))
	_, err = client.Me(ctx)
	assert.ErrorIs(t, err, authapi.ErrUnauthorized)

	_, err = client.Login(ctx, "new.parent@rkids.church", "whatever")
	assert.ErrorIs(t, err, authapi.ErrPasswordNotSet)
}
