package rooms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainroom "hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/fault"
	"hotelier/internal/infra/storage/memory"
)

type recordingUploader struct {
	key  string
	body string
	err  error
}

func (u *recordingUploader) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.key, u.body = key, string(raw)
	return "https://cdn.test/" + key, nil
}

func newHandlers(t *testing.T) (*Handlers, *Queries, *memory.Store, *memory.Outbox, *recordingUploader) {
	t.Helper()
	store := memory.NewStore()
	box := memory.NewOutbox()
	uploader := &recordingUploader{}
	seq := 0
	h := &Handlers{
		UoWFactory: memory.Factory{Store: store},
		Outbox:     box,
		Uploader:   uploader,
		Currency:   "USD",
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
	return h, &Queries{UoWFactory: memory.Factory{Store: store}}, store, box, uploader
}

func TestCreateRoomRecordsEvent(t *testing.T) {
	h, q, _, box, _ := newHandlers(t)
	ctx := context.Background()

	room, err := h.CreateRoom(ctx, CreateRoomCommand{ManagerID: "manager-1", Role: "manager", Number: "R101", Category: "Single", Price: 1000})
	require.NoError(t, err)
	assert.Equal(t, "id-1", room.ID)
	assert.Equal(t, "single", room.Category)
	assert.True(t, room.Available)
	require.Len(t, box.Records(), 1)
	assert.Equal(t, "room.created", box.Records()[0].Name)

	_, err = h.CreateRoom(ctx, CreateRoomCommand{ManagerID: "manager-2", Role: "manager", Number: "R101", Category: "double", Price: 10})
	assert.ErrorIs(t, err, domainroom.ErrDuplicateNumber)
	assert.Len(t, box.Records(), 1)

	_, err = h.CreateRoom(ctx, CreateRoomCommand{Role: "manager", Number: "R102", Category: "double"})
	assert.ErrorIs(t, err, ErrManagerRequired)

	managed, err := q.ListManaged(ctx, ListManagedRoomsQuery{ManagerID: "manager-1"})
	require.NoError(t, err)
	assert.Len(t, managed.Items, 1)
	other, err := q.ListManaged(ctx, ListManagedRoomsQuery{ManagerID: "manager-2"})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestUpdateRoomFieldsOwnership(t *testing.T) {
	h, _, store, _, _ := newHandlers(t)
	ctx := context.Background()
	room, err := h.CreateRoom(ctx, CreateRoomCommand{ManagerID: "manager-1", Role: "manager", Number: "R101", Category: "single", Price: 1000})
	require.NoError(t, err)

	price := int64(1200)
	_, err = h.UpdateRoomFields(ctx, UpdateRoomFieldsCommand{ManagerID: "manager-2", Role: "manager", RoomID: room.ID, Fields: domainroom.FieldsUpdate{Price: &price}})
	assert.ErrorIs(t, err, fault.ErrAuthorization)

	available := false
	_, err = h.UpdateRoomFields(ctx, UpdateRoomFieldsCommand{ManagerID: "manager-1", Role: "manager", RoomID: room.ID, Fields: domainroom.FieldsUpdate{Available: &available}})
	assert.ErrorIs(t, err, domainroom.ErrAvailabilityNotEditable)

	updated, err := h.UpdateRoomFields(ctx, UpdateRoomFieldsCommand{ManagerID: "manager-1", Role: "manager", RoomID: room.ID, Fields: domainroom.FieldsUpdate{Price: &price}})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), updated.Price.Amount)

	stored, err := store.Rooms().ByID(ctx, domainroom.ID(room.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1200), stored.Price.Amount)
	assert.True(t, stored.Available)

	_, err = h.UpdateRoomFields(ctx, UpdateRoomFieldsCommand{ManagerID: "manager-1", Role: "manager", RoomID: "nope", Fields: domainroom.FieldsUpdate{Price: &price}})
	assert.ErrorIs(t, err, domainroom.ErrNotFound)
}

func TestUploadRoomPhoto(t *testing.T) {
	h, _, store, _, uploader := newHandlers(t)
	ctx := context.Background()
	room, err := h.CreateRoom(ctx, CreateRoomCommand{ManagerID: "manager-1", Role: "manager", Number: "R101", Category: "single", Price: 1000})
	require.NoError(t, err)

	_, err = h.UploadRoomPhoto(ctx, UploadRoomPhotoCommand{ManagerID: "manager-2", Role: "manager", RoomID: room.ID, FileName: "a.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, fault.ErrAuthorization)
	assert.Empty(t, uploader.key, "nothing is uploaded for a foreign room")

	out, err := h.UploadRoomPhoto(ctx, UploadRoomPhotoCommand{ManagerID: "manager-1", Role: "manager", RoomID: room.ID, FileName: "Lobby.JPG", ContentType: "image/jpeg", Reader: strings.NewReader("jpeg")})
	require.NoError(t, err)
	assert.Equal(t, "rooms/"+room.ID+"/id-2.jpg", uploader.key)
	assert.Equal(t, "jpeg", uploader.body)
	assert.Equal(t, "https://cdn.test/"+uploader.key, out.PhotoURL)

	stored, err := store.Rooms().ByID(ctx, domainroom.ID(room.ID))
	require.NoError(t, err)
	assert.Equal(t, out.PhotoURL, stored.PhotoURL)

	uploader.err = errors.New("bucket gone")
	_, err = h.UploadRoomPhoto(ctx, UploadRoomPhotoCommand{ManagerID: "manager-1", Role: "manager", RoomID: room.ID, FileName: "b.png", ContentType: "image/png", Reader: strings.NewReader("png")})
	assert.Error(t, err)

	h.Uploader = nil
	_, err = h.UploadRoomPhoto(ctx, UploadRoomPhotoCommand{ManagerID: "manager-1", RoomID: room.ID, Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUploaderUnavailable)
}

func TestListAvailableSkipsBookedRooms(t *testing.T) {
	h, q, store, _, _ := newHandlers(t)
	ctx := context.Background()
	for _, n := range []string{"R1", "R2"} {
		_, err := h.CreateRoom(ctx, CreateRoomCommand{ManagerID: "manager-1", Role: "manager", Number: n, Category: "single", Price: 100})
		require.NoError(t, err)
	}
	require.NoError(t, store.Rooms().ClaimAvailability(ctx, "id-1"))

	available, err := q.ListAvailable(ctx, ListAvailableRoomsQuery{})
	require.NoError(t, err)
	require.Len(t, available.Items, 1)
	assert.Equal(t, "R2", available.Items[0].Number)
}
