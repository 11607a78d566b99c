package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-shiplabel/internal/label"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
	"github.com/a3tai/mcp-shiplabel/internal/testpdf"
)

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()
	s, err := NewService(ServiceConfig{MaxFileSize: 1024 * 1024, InputDirectory: dir})
	require.NoError(t, err)
	return s
}

func TestNewService(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	assert.Error(t, err, "an input directory is required")

	s := newTestService(t, t.TempDir())
	assert.Equal(t, int64(1024*1024), s.GetMaxFileSize())
	assert.Equal(t, 2, s.Parser().Template().GeometryPage)
}

func TestService_Parse(t *testing.T) {
	s := newTestService(t, t.TempDir())

	res, err := s.Parse(context.Background(), testpdf.ShippingLabel())
	require.NoError(t, err)
	require.NotNil(t, res.Label)

	d := res.Label
	assert.Equal(t, testpdf.SampleTracking, d.Tracking)
	assert.Equal(t, testpdf.SampleOrderID, d.OrderID)
	assert.Equal(t, testpdf.SampleContract, d.Contract)
	assert.Equal(t, "SEDEX", d.Modality)

	assert.Equal(t, testpdf.SampleRecipient, d.Recipient.Name)
	assert.Equal(t, "Rua Santa Terezinha, 2359", d.Recipient.Street)
	assert.Equal(t, "Jardim Marina", d.Recipient.Neighborhood)
	assert.Equal(t, "Praia Grande", d.Recipient.City)
	assert.Equal(t, "SP", d.Recipient.State)
	assert.Equal(t, "11702-530", d.Recipient.PostalCode)

	assert.Equal(t, "Loja Vitta", d.Sender.Name)
	assert.Equal(t, "Avenida Edwilson José do Carmo, 92, Mongaguá, São Paulo", d.Sender.Address)
	assert.Equal(t, "11730-000", d.Sender.PostalCode)

	require.Len(t, d.Products, 2)
	assert.Equal(t, label.ProdItem{N: "1", Desc: "Body Manga Longa", Var: "Azul, M", Qtd: "2", Val: "R$ 29,90"}, d.Products[0])
	assert.Equal(t, label.ProdItem{N: "2", Desc: "Short Infantil Menina Listrado", Var: "Rosa", Qtd: "1", Val: "R$ 19,90"}, d.Products[1])
	assert.Equal(t, 3, d.TotalQtd)
	assert.Equal(t, "R$ 79,70", d.TotalVal)

	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 2, res.LinesDropped, "one disclaimer line per page")
	assert.Empty(t, res.Issues.Fields())

	assert.Equal(t, testpdf.SampleFilename, label.BuildFilename(d.Recipient.Name, d.FirstProductDesc(), label.FormatThermal))
}

func TestService_ParseIdempotent(t *testing.T) {
	s := newTestService(t, t.TempDir())
	data := testpdf.ShippingLabel()

	a, err := s.Parse(context.Background(), data)
	require.NoError(t, err)
	b, err := s.Parse(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, a.Label, b.Label)
}

func TestService_ParseBlankDocument(t *testing.T) {
	s := newTestService(t, t.TempDir())

	res, err := s.Parse(context.Background(), testpdf.Blank(1))
	require.NoError(t, err)
	assert.Equal(t, "Nome não encontrado", res.Label.Recipient.Name)
	assert.Len(t, res.Label.Products, 1)
	assert.NotEmpty(t, res.Issues.Fields())
}

func TestService_ParseUndecodable(t *testing.T) {
	s := newTestService(t, t.TempDir())

	res, err := s.Parse(context.Background(), []byte("not a pdf"))
	assert.Nil(t, res)
	assert.Equal(t, lerrors.ErrorTypeExtractionFailure, lerrors.TypeOf(err))
}

func TestService_ReadUpload(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, dir)

	pdfPath := filepath.Join(dir, "label.pdf")
	require.NoError(t, os.WriteFile(pdfPath, testpdf.ShippingLabel(), 0o644))
	txtPath := filepath.Join(dir, "label.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("text"), 0o644))

	req, err := s.ReadUpload(pdfPath, "")
	require.NoError(t, err)
	assert.Equal(t, MIMETypePDF, req.MIMEType)
	assert.Equal(t, "label.pdf", req.Name)
	assert.NotEmpty(t, req.Data)

	req, err = s.ReadUpload(txtPath, "")
	assert.ErrorIs(t, err, lerrors.ErrInvalidInputType)
	assert.Nil(t, req.Data, "rejected uploads are never read")

	_, err = s.ReadUpload(pdfPath, "image/png")
	assert.ErrorIs(t, err, lerrors.ErrInvalidInputType)

	_, err = s.ReadUpload("/etc/hosts", MIMETypePDF)
	assert.ErrorContains(t, err, "security validation failed")
}
