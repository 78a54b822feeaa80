package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

func obs(date string, v int, subject domain.Subject) domain.TiterObservation {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return domain.TiterObservation{Date: d, Titer: domain.Titer(v), Subject: subject}
}

func TestPrepareTrend(t *testing.T) {
	maternal := domain.TiterSeries{
		obs("2024-03-01", 16, domain.SubjectMaternal),
		obs("2024-01-01", 64, domain.SubjectMaternal),
	}
	infant := domain.TiterSeries{
		obs("2024-03-01", 4, domain.SubjectInfant),
		obs("2024-02-01", 8, domain.SubjectInfant),
	}

	trend := PrepareTrend(maternal, infant)

	require.Len(t, trend.Combined, 4)
	assert.Equal(t, domain.Titer(64), trend.Combined[0].Titer)
	assert.Equal(t, domain.SubjectInfant, trend.Combined[1].Subject)
	assert.Equal(t, domain.SubjectMaternal, trend.Combined[2].Subject, "maternal point first on a shared date")
	assert.Equal(t, domain.SubjectInfant, trend.Combined[3].Subject)
	assert.Equal(t, "Maternal (2024-01-01)", trend.Combined[0].Label)
	assert.Equal(t, "Infant (2024-02-01)", trend.Combined[1].Label)

	require.NotNil(t, trend.LatestMaternal)
	assert.Equal(t, domain.Titer(16), *trend.LatestMaternal)
	require.NotNil(t, trend.FourfoldReference)
	assert.Equal(t, 4.0, *trend.FourfoldReference)

	assert.Equal(t, domain.Titer(1), trend.Axis.Min)
	assert.Equal(t, DefaultAxisCeiling, trend.Axis.Max)
	assert.Len(t, trend.Axis.Ticks, 9)

	// inputs are not reordered
	assert.Equal(t, domain.Titer(16), maternal[0].Titer)
}

func TestPrepareTrend_NoMaternalData(t *testing.T) {
	trend := PrepareTrend(nil, domain.TiterSeries{obs("2024-01-01", 2, domain.SubjectInfant)})

	assert.Nil(t, trend.LatestMaternal)
	assert.Nil(t, trend.FourfoldReference)
	assert.Len(t, trend.Combined, 1)
}

func TestPrepareTrend_FractionalReference(t *testing.T) {
	trend := PrepareTrend(domain.TiterSeries{obs("2024-01-01", 2, domain.SubjectMaternal)}, nil)
	require.NotNil(t, trend.FourfoldReference)
	assert.Equal(t, 0.5, *trend.FourfoldReference)
}

func TestPrepareTrend_AxisGrowsPastDefault(t *testing.T) {
	trend := PrepareTrend(domain.TiterSeries{obs("2024-01-01", 1024, domain.SubjectMaternal)}, nil)
	assert.Equal(t, domain.Titer(1024), trend.Axis.Max)
	assert.Equal(t, domain.Titer(1024), trend.Axis.Ticks[len(trend.Axis.Ticks)-1])
}

func TestPrepareTrend_Empty(t *testing.T) {
	trend := PrepareTrend(nil, nil)
	assert.Empty(t, trend.Combined)
	assert.Equal(t, DefaultAxisCeiling, trend.Axis.Max)
}
