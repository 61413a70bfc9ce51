package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskEmailAddress(t *testing.T) {
	require.Equal(t, "a***e@example.com", maskEmailAddress(" Alice@Example.com "))
	require.Equal(t, "b***@example.com", maskEmailAddress("bo@example.com"))
	require.Equal(t, "***", maskEmailAddress("not-an-email"))
	require.Empty(t, maskEmailAddress(""))
}
