package grpcserver

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"motorhub/internal/motor"
	"motorhub/pkg/database"
	"motorhub/pkg/models"
)

func newClient(t *testing.T) *MotorServiceClient {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	repo := motor.NewRepo(db)
	hp := func(v float64) *float64 { return &v }
	require.NoError(t, repo.Upsert(ctx, []models.MotorCanonical{
		{ModelKey: "VERADO-300HP-EFI-DTS", Family: "Verado", MotorFamily: "Verado", Horsepower: hp(300), EFI: true, StockQty: 1},
		{ModelKey: "FOURSTROKE-9.9HP-EFI-ELH", Family: "FourStroke", MotorFamily: "FourStroke", Horsepower: hp(9.9), EFI: true},
	}))

	lis := bufconn.Listen(1 << 20)
	gs := New(NewServer(repo, zerolog.Nop()))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewMotorServiceClient(conn)
}

func TestParseDescription(t *testing.T) {
	c := newClient(t)

	resp, err := c.ParseDescription(context.Background(), &ParseRequest{Description: "150 Pro XS XL"})
	require.NoError(t, err)
	assert.Equal(t, "PROXS-150HP-EFI-XL", resp.Identity.ModelKey)
	assert.Equal(t, "proxs-150hp-efi-xl", resp.Identity.Slug)
	assert.Equal(t, "Pro XS", string(resp.Identity.MotorFamily))
	assert.False(t, resp.Identity.LowConfidence)

	_, err = c.ParseDescription(context.Background(), &ParseRequest{Description: "  "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetMotor(t *testing.T) {
	c := newClient(t)

	resp, err := c.GetMotor(context.Background(), &GetMotorRequest{Key: "verado-300hp-efi-dts"})
	require.NoError(t, err)
	assert.Equal(t, "VERADO-300HP-EFI-DTS", resp.Motor.ModelKey)
	assert.Equal(t, 1, resp.Motor.StockQty)

	_, err = c.GetMotor(context.Background(), &GetMotorRequest{Key: "NOPE"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.GetMotor(context.Background(), &GetMotorRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestListMotors(t *testing.T) {
	c := newClient(t)

	resp, err := c.ListMotors(context.Background(), &ListMotorsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), resp.Total)
	assert.Equal(t, int32(20), resp.Limit)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "FOURSTROKE-9.9HP-EFI-ELH", resp.Items[0].ModelKey)

	resp, err = c.ListMotors(context.Background(), &ListMotorsRequest{Family: "verado", InStock: true})
	require.NoError(t, err)
	assert.Equal(t, int32(1), resp.Total)

	_, err = c.ListMotors(context.Background(), &ListMotorsRequest{Family: "racing"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
