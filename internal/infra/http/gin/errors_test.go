package ginserver

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"hotelier/internal/app/locks"
	"hotelier/internal/app/services/auth"
	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	"hotelier/internal/infra/storage/s3"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: domainroom.ErrInvalidCategory, want: http.StatusBadRequest},
		{err: domainroom.ErrUnavailable, want: http.StatusConflict},
		{err: locks.ErrBusy, want: http.StatusConflict},
		{err: domainroom.ErrNotRoomManager, want: http.StatusForbidden},
		{err: fmt.Errorf("upload photo: %w", s3.ErrNotConfigured), want: http.StatusServiceUnavailable},
		{err: fmt.Errorf("upload photo: %w", s3.ErrUnsupportedImage), want: http.StatusBadRequest},
		{err: auth.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: errors.New("socket closed"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(fmt.Errorf("wrap: %w", domainbooking.ErrIllegalTransition)))
}
