package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/relay/internal/domain"
	"github.com/dkeye/relay/internal/metrics"
)

func TestRegistry_OnConnectAllocatesUniqueIDs(t *testing.T) {
	reg := NewRegistry(nil)

	seen := make(map[domain.ConnectionID]bool)
	for range 100 {
		id := reg.OnConnect(newFakeConn())
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, 100, reg.ConnectionCount())
	assert.Equal(t, 0, reg.RoomCount())
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.OnConnect(newFakeConn())

	assert.True(t, reg.Join(c, "r"))
	once := reg.MembersOf("r")

	assert.False(t, reg.Join(c, "r"))
	assert.ElementsMatch(t, once, reg.MembersOf("r"))
	assert.Equal(t, []domain.ConnectionID{c}, reg.MembersOf("r"))
	assert.Equal(t, 1, reg.RoomCount())
}

func TestRegistry_JoinUnknownConnectionIsNoop(t *testing.T) {
	reg := NewRegistry(nil)

	assert.False(t, reg.Join("ghost", "r"))
	assert.Empty(t, reg.MembersOf("r"))
	assert.Equal(t, 0, reg.RoomCount())
}

func TestRegistry_DisconnectRemovesFromAllRooms(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.OnConnect(newFakeConn())
	other := reg.OnConnect(newFakeConn())
	reg.Join(c, "r1")
	reg.Join(c, "r2")
	reg.Join(other, "r2")

	require.True(t, reg.OnDisconnect(c))
	assert.NotContains(t, reg.MembersOf("r1"), c)
	assert.NotContains(t, reg.MembersOf("r2"), c)
	assert.Equal(t, []domain.ConnectionID{other}, reg.MembersOf("r2"))
	assert.Equal(t, 1, reg.ConnectionCount())

	// r1 became empty and is gone; r2 still has a member.
	assert.Equal(t, 1, reg.RoomCount())

	assert.False(t, reg.OnDisconnect(c))
	assert.NotContains(t, reg.MembersOf("r1"), c)
	assert.NotContains(t, reg.MembersOf("r2"), c)
	assert.False(t, reg.OnDisconnect("never-seen"))
}

func TestRegistry_JoinAfterDisconnectIsNoop(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.OnConnect(newFakeConn())
	reg.OnDisconnect(c)

	assert.False(t, reg.Join(c, "r"))
	assert.Empty(t, reg.MembersOf("r"))
}

func TestRegistry_MembersOfUnknownRoom(t *testing.T) {
	reg := NewRegistry(nil)

	members := reg.MembersOf("nowhere")
	assert.NotNil(t, members)
	assert.Empty(t, members)
}

func TestRegistry_SnapshotAndJoin(t *testing.T) {
	reg := NewRegistry(nil)
	e1 := reg.OnConnect(newFakeConn())
	e2 := reg.OnConnect(newFakeConn())
	v := reg.OnConnect(newFakeConn())
	reg.Join(e1, "r")
	reg.Join(e2, "r")

	members, ok := reg.SnapshotAndJoin(v, "r")
	require.True(t, ok)
	assert.ElementsMatch(t, []domain.ConnectionID{e1, e2}, members)
	assert.ElementsMatch(t, []domain.ConnectionID{e1, e2, v}, reg.MembersOf("r"))

	// A member pulling again is still left out of its own snapshot.
	members, ok = reg.SnapshotAndJoin(v, "r")
	require.True(t, ok)
	assert.ElementsMatch(t, []domain.ConnectionID{e1, e2}, members)

	members, ok = reg.SnapshotAndJoin("ghost", "r")
	assert.False(t, ok)
	assert.Nil(t, members)
	assert.Len(t, reg.MembersOf("r"), 3)
}

func TestRegistry_EmitTo(t *testing.T) {
	reg := NewRegistry(nil)
	conn := newFakeConn()
	id := reg.OnConnect(conn)

	require.NoError(t, reg.EmitTo(id, []byte(`["push",1]`)))
	assert.Equal(t, []string{`["push",1]`}, conn.Frames())

	assert.ErrorIs(t, reg.EmitTo("ghost", []byte("x")), domain.ErrUnknownConn)

	conn.Close()
	assert.ErrorIs(t, reg.EmitTo(id, []byte("x")), domain.ErrConnClosed)
}

func TestRegistry_CloseLeavesMembershipToDisconnect(t *testing.T) {
	reg := NewRegistry(nil)
	conn := newFakeConn()
	id := reg.OnConnect(conn)
	reg.Join(id, "r")

	assert.True(t, reg.Close(id))
	assert.True(t, conn.IsClosed())
	assert.Contains(t, reg.MembersOf("r"), id)
	assert.False(t, reg.Close("ghost"))
}

func TestRegistry_CloseAll(t *testing.T) {
	reg := NewRegistry(nil)
	conns := []*fakeConn{newFakeConn(), newFakeConn(), newFakeConn()}
	for _, c := range conns {
		reg.OnConnect(c)
	}

	assert.Equal(t, 3, reg.CloseAll())
	for _, c := range conns {
		assert.True(t, c.IsClosed())
	}
}

func TestRegistry_Rooms(t *testing.T) {
	reg := NewRegistry(nil)
	a := reg.OnConnect(newFakeConn())
	b := reg.OnConnect(newFakeConn())
	reg.Join(a, "beta")
	reg.Join(b, "beta")
	reg.Join(a, "alpha")

	assert.Equal(t, []domain.RoomInfo{
		{ID: "alpha", MemberCount: 1},
		{ID: "beta", MemberCount: 2},
	}, reg.Rooms())

	info, ok := reg.Room("beta")
	assert.True(t, ok)
	assert.Equal(t, 2, info.MemberCount)

	_, ok = reg.Room("gamma")
	assert.False(t, ok)
}

func TestRegistry_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	reg := NewRegistry(m)

	a := reg.OnConnect(newFakeConn())
	b := reg.OnConnect(newFakeConn())
	reg.Join(a, "r1")
	reg.Join(b, "r2")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveConnections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveRooms))

	reg.OnDisconnect(a)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveRooms))
}

func TestRegistry_ConcurrentJoinAndDisconnect(t *testing.T) {
	reg := NewRegistry(nil)

	const workers = 32
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := reg.OnConnect(newFakeConn())
			for j := range 10 {
				room := domain.RoomID(fmt.Sprintf("room-%d", (i+j)%5))
				reg.Join(id, room)
				reg.MembersOf(room)
				reg.SnapshotAndJoin(id, room)
			}
			reg.OnDisconnect(id)
			reg.OnDisconnect(id)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, reg.ConnectionCount())
	assert.Equal(t, 0, reg.RoomCount())
	assert.Empty(t, reg.Rooms())
}
