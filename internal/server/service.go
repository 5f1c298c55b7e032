package server

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/order-extractor/internal/common"
	"github.com/joseph-ayodele/order-extractor/internal/entity"
	"github.com/joseph-ayodele/order-extractor/internal/export"
	"github.com/joseph-ayodele/order-extractor/internal/extract"
	"github.com/joseph-ayodele/order-extractor/internal/pipeline"
	"github.com/joseph-ayodele/order-extractor/internal/repository"
	"github.com/joseph-ayodele/order-extractor/internal/utils"
)

const defaultMaxDocumentBytes = 4 << 20

// ExtractionService exposes extraction and stored orders over gRPC. The store and the
// exporter are optional; methods that need them answer FailedPrecondition without.
type ExtractionService struct {
	extractor *extract.Extractor
	proc      *pipeline.Processor
	store     repository.OrderStore
	exporter  *export.Service
	maxBytes  int
	logger    *slog.Logger
}

type ServiceOption func(*ExtractionService)

func WithStore(store repository.OrderStore) ServiceOption {
	return func(s *ExtractionService) { s.store = store }
}

func WithExporter(exp *export.Service) ServiceOption {
	return func(s *ExtractionService) { s.exporter = exp }
}

func WithProcessor(p *pipeline.Processor) ServiceOption {
	return func(s *ExtractionService) { s.proc = p }
}

func WithMaxDocumentBytes(n int) ServiceOption {
	return func(s *ExtractionService) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func NewExtractionService(extractor *extract.Extractor, logger *slog.Logger, opts ...ServiceOption) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = extract.New(extract.WithLogger(logger))
	}
	s := &ExtractionService{extractor: extractor, maxBytes: defaultMaxDocumentBytes, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Extract runs the extractor over {html, timestamp_millis?, persist?, ref?}. With persist
// the result goes through the processing pipeline and is stored.
func (s *ExtractionService) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	html := utils.StringField(req, "html")
	ts, err := utils.Int64Field(req, "timestamp_millis")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}

	v := common.NewValidator().Field("html", html, common.Required, common.MaxBytes(s.maxBytes))
	if ts != nil {
		v.Field("timestamp_millis", *ts, common.NonNegative)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Warn("extract request rejected", "error", err)
		return nil, err
	}

	var data *entity.ExtractorData
	if utils.BoolField(req, "persist") {
		if s.proc == nil {
			return nil, common.NotConfiguredError("persistence")
		}
		ref := utils.StringField(req, "ref")
		if ref == "" {
			ref = common.RequestIDFromContext(ctx)
		}
		res, err := s.proc.ProcessHTML(ctx, ref, html, ts)
		if err != nil {
			return nil, s.toStatus("extract", err)
		}
		data = res.Data
	} else {
		data, err = s.extractor.Extract(html, ts)
		if err != nil {
			return nil, s.toStatus("extract", err)
		}
	}
	return s.toStruct(data)
}

// GetOrder loads {id} from the store.
func (s *ExtractionService) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, common.NotConfiguredError("order store")
	}
	id := strings.TrimSpace(utils.StringField(req, "id"))
	if id == "" {
		return nil, common.InvalidArgumentError("id is required")
	}
	data, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, s.toStatus("get order", err)
	}
	return s.toStruct(data)
}

// ListOrders returns {orders: [...]} for the optional {from_date, to_date} (YYYY-MM-DD).
func (s *ExtractionService) ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, common.NotConfiguredError("order store")
	}
	fromDate, toDate, err := dateWindow(req)
	if err != nil {
		return nil, err
	}
	if toDate != nil {
		end := toDate.Add(24*time.Hour - time.Nanosecond)
		toDate = &end
	}

	orders, err := s.store.ListOrders(ctx, fromDate, toDate)
	if err != nil {
		return nil, s.toStatus("list orders", err)
	}
	list := make([]any, 0, len(orders))
	for _, o := range orders {
		st, err := utils.ToPBExtraction(o)
		if err != nil {
			return nil, common.InternalError(err.Error())
		}
		list = append(list, st.AsMap())
	}
	s.logger.Info("orders listed", "count", len(orders))
	return structpb.NewStruct(map[string]any{"orders": list})
}

// ExportOrders returns {xlsx: <base64>} for the optional {from_date, to_date}.
func (s *ExtractionService) ExportOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.exporter == nil {
		return nil, common.NotConfiguredError("export")
	}
	fromDate, toDate, err := dateWindow(req)
	if err != nil {
		return nil, err
	}
	b, err := s.exporter.ExportOrdersXLSX(ctx, fromDate, toDate)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "err", err)
		return nil, common.InternalError(err.Error())
	}
	return structpb.NewStruct(map[string]any{"xlsx": base64.StdEncoding.EncodeToString(b)})
}

func dateWindow(req *structpb.Struct) (*time.Time, *time.Time, error) {
	var fromDate, toDate *time.Time
	if fd := strings.TrimSpace(utils.StringField(req, "from_date")); fd != "" {
		from, err := utils.ParseYMD(fd)
		if err != nil {
			return nil, nil, status.Errorf(codes.InvalidArgument, "from_date invalid (YYYY-MM-DD): %v", err)
		}
		fromDate = &from
	}
	if td := strings.TrimSpace(utils.StringField(req, "to_date")); td != "" {
		to, err := utils.ParseYMD(td)
		if err != nil {
			return nil, nil, status.Errorf(codes.InvalidArgument, "to_date invalid (YYYY-MM-DD): %v", err)
		}
		toDate = &to
	}
	return fromDate, toDate, nil
}

func (s *ExtractionService) toStruct(data *entity.ExtractorData) (*structpb.Struct, error) {
	st, err := utils.ToPBExtraction(data)
	if err != nil {
		s.logger.Error("failed to encode extraction", "error", err)
		return nil, common.InternalError("encode extraction")
	}
	return st, nil
}

// toStatus maps domain failures onto gRPC codes. Unusable documents are the caller's problem.
func (s *ExtractionService) toStatus(op string, err error) error {
	code := common.GRPCCode(err)
	if errors.Is(err, extract.ErrStructural) || errors.Is(err, extract.ErrParse) {
		code = codes.InvalidArgument
	}
	switch code {
	case codes.InvalidArgument:
		s.logger.Warn(op+" rejected", "error", err)
		return common.InvalidArgumentError(err.Error())
	case codes.NotFound:
		return common.NotFoundError(err.Error())
	default:
		s.logger.Error(op+" failed", "error", err)
		return common.InternalErrorf("%s failed", op)
	}
}

var _ ExtractionServer = (*ExtractionService)(nil)
