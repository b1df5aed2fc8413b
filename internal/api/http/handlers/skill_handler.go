package handlers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/spec-kit/mileage-skill/internal/api/dto"
	"github.com/spec-kit/mileage-skill/internal/delivery"
	"github.com/spec-kit/mileage-skill/internal/observability"
	"github.com/spec-kit/mileage-skill/internal/service"
	"github.com/spec-kit/mileage-skill/internal/worker"
	apperrors "github.com/spec-kit/mileage-skill/pkg/util/errorutil"
)

const (
	paramUserName   = "user_name"
	paramUserPhone4 = "user_phone4"

	// PointsTrigger is the utterance the points block listens for.
	PointsTrigger     = "#포인트_조회"
	pointsButtonLabel = "포인트 조회"

	msgProcessing       = "처리 중입니다..."
	msgAuthProcessing   = "본인인증 처리 중입니다...\n잠시만 기다려주세요."
	msgPointsProcessing = "포인트 조회 중입니다...\n잠시만 기다려주세요."

	msgSkillReady         = "스킬 서버가 정상적으로 작동 중입니다.\n본인인증을 하려면 이름과 전화번호 뒤 4자리를 입력해주세요."
	msgMissingCredentials = "이름과 전화번호 뒤 4자리를 모두 입력해야 본인인증이 가능합니다.\n다시 시도해주세요."
	msgPersonNotFound     = "입력하신 정보와 일치하는 인원을 찾지 못했습니다.\n이름과 전화번호 뒤 4자리를 다시 한 번 확인해주세요.\n(그래도 안 되면 운영진에게 문의해주세요.)"
	msgAuthSuccess        = "%s님, 본인인증이 완료되었습니다 ✅\n\n이제 아래 버튼을 눌러 포인트를 확인할 수 있습니다."
	msgAuthInternal       = "본인인증 처리 중 내부 오류가 발생했습니다.\n잠시 후 다시 시도해 주세요.\n(지속되면 운영진에게 문의해주세요.)"
	msgRootInternal       = "스킬 서버 처리 중 내부 오류가 발생했습니다.\n잠시 후 다시 시도해 주세요.\n(지속되면 운영진에게 문의해주세요.)"

	msgMissingCaller    = "사용자 정보를 확인할 수 없습니다.\n다시 시도해 주세요."
	msgNotAuthenticated = "먼저 본인인증이 필요합니다.\n포인트 조회 메뉴에서 [본인확인]을 다시 진행해 주세요."
	msgPointsNotFound   = "%s님의 포인트 정보를 찾지 못했습니다.\n운영진에게 포인트 등록 여부를 확인해 주세요."
	msgPointsSuccess    = "%s님의 마일리지 현황입니다.\n\n현재 마일리지: %s점"
	msgPointsInternal   = "포인트 조회 중 내부 오류가 발생했습니다.\n잠시 후 다시 시도해 주세요.\n(지속되면 운영진에게 문의해주세요.)"
)

const (
	opAuthenticate = "authenticate"
	opPoints       = "points"
)

var pointsPrinter = message.NewPrinter(language.Korean)

// resolver produces the final reply of a skill call.
type resolver func(ctx context.Context) dto.SkillResponse

// SkillHandler serves the Kakao skill webhooks.
type SkillHandler struct {
	auth      *service.AuthService
	points    *service.PointsService
	deliverer delivery.Deliverer
	runner    *worker.DeferredRunner
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// SkillDependencies bundles collaborators of the skill handler.
type SkillDependencies struct {
	AuthService   *service.AuthService
	PointsService *service.PointsService
	Deliverer     delivery.Deliverer
	Runner        *worker.DeferredRunner
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// NewSkillHandler constructs handler.
func NewSkillHandler(deps SkillDependencies) *SkillHandler {
	return &SkillHandler{
		auth:      deps.AuthService,
		points:    deps.PointsService,
		deliverer: deps.Deliverer,
		runner:    deps.Runner,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

// Authenticate handles POST /kakao.
func (h *SkillHandler) Authenticate(c *fiber.Ctx) error {
	return h.authenticate(c, false)
}

// Root handles POST /. The chatbot builder's skill test sends no params,
// which is answered with a readiness message instead of a validation error.
func (h *SkillHandler) Root(c *fiber.Ctx) error {
	return h.authenticate(c, true)
}

func (h *SkillHandler) authenticate(c *fiber.Ctx, builderTest bool) error {
	req, err := parseSkillRequest(c)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(req.Param(paramUserName))
	phone4 := strings.TrimSpace(req.Param(paramUserPhone4))
	callerID := req.UserRequest.User.ID.String()
	callbackURL := req.UserRequest.CallbackURL.String()
	logger := h.requestLogger(c, opAuthenticate, callbackURL)

	internalText := msgAuthInternal
	if builderTest {
		internalText = msgRootInternal
	}

	if builderTest && name == "" && phone4 == "" {
		logger.Info("skill test request")
		return h.respond(c, logger, opAuthenticate, callbackURL, msgProcessing, internalText, reply(msgSkillReady))
	}

	logger.Info("authentication requested", zap.String("name", name))

	if name == "" || phone4 == "" {
		h.metrics.RecordOutcome(opAuthenticate, "validation")
		return h.respond(c, logger, opAuthenticate, callbackURL, msgProcessing, internalText, reply(msgMissingCredentials))
	}

	return h.respond(c, logger, opAuthenticate, callbackURL, msgAuthProcessing, internalText, func(ctx context.Context) dto.SkillResponse {
		person, err := h.auth.Authenticate(ctx, callerID, name, phone4)
		switch {
		case err == nil:
			h.metrics.RecordOutcome(opAuthenticate, "success")
			logger.Info("authenticated", zap.String("name", person.Name), zap.String("role", string(person.Role)))
			return dto.NewTextResponse(
				fmt.Sprintf(msgAuthSuccess, person.Name),
				dto.NewMessageQuickReply(pointsButtonLabel, PointsTrigger),
			)
		case apperrors.IsNotFound(err):
			h.metrics.RecordOutcome(opAuthenticate, "not_found")
			logger.Info("no roster match", zap.String("name", name))
			return dto.NewTextResponse(msgPersonNotFound)
		case apperrors.IsValidation(err):
			h.metrics.RecordOutcome(opAuthenticate, "validation")
			return dto.NewTextResponse(msgMissingCredentials)
		default:
			h.metrics.RecordOutcome(opAuthenticate, "error")
			logger.Error("authentication failed", zap.Error(err))
			return dto.NewTextResponse(internalText)
		}
	})
}

// Points handles POST /points.
func (h *SkillHandler) Points(c *fiber.Ctx) error {
	req, err := parseSkillRequest(c)
	if err != nil {
		return err
	}

	callerID := req.UserRequest.User.ID.String()
	callbackURL := req.UserRequest.CallbackURL.String()
	logger := h.requestLogger(c, opPoints, callbackURL)
	logger.Info("points requested")

	session, err := h.points.Session(c.UserContext(), callerID)
	if err != nil {
		text := msgPointsInternal
		switch {
		case errors.Is(err, service.ErrMissingCaller):
			h.metrics.RecordOutcome(opPoints, "validation")
			text = msgMissingCaller
		case errors.Is(err, service.ErrNotAuthenticated):
			h.metrics.RecordOutcome(opPoints, "unauthenticated")
			text = msgNotAuthenticated
		default:
			h.metrics.RecordOutcome(opPoints, "error")
			logger.Error("session lookup failed", zap.Error(err))
		}
		return h.respond(c, logger, opPoints, callbackURL, msgProcessing, msgPointsInternal, reply(text))
	}

	return h.respond(c, logger, opPoints, callbackURL, msgPointsProcessing, msgPointsInternal, func(ctx context.Context) dto.SkillResponse {
		result, err := h.points.QueryPoints(ctx, session)
		switch {
		case err == nil:
			h.metrics.RecordOutcome(opPoints, "success")
			return dto.NewTextResponse(fmt.Sprintf(msgPointsSuccess, session.Name, formatPoints(*result.Record.Points)))
		case apperrors.IsNotFound(err):
			h.metrics.RecordOutcome(opPoints, "not_found")
			logger.Info("no points entry", zap.String("name", session.Name))
			return dto.NewTextResponse(fmt.Sprintf(msgPointsNotFound, session.Name))
		default:
			h.metrics.RecordOutcome(opPoints, "error")
			logger.Error("points lookup failed", zap.Error(err))
			return dto.NewTextResponse(msgPointsInternal)
		}
	})
}

// respond replies inline when no callback URL was supplied. Otherwise it
// acknowledges with ackText and resolves and delivers in a detached task.
//
// The ack is written to the response buffer before the task is scheduled,
// but fasthttp only flushes it to the socket once the handler returns. A
// resolver that needs no I/O (the reply helper) can therefore POST the
// callback a few microseconds before the ack reaches the wire. Resolvers
// that read a sheet always deliver after the ack.
func (h *SkillHandler) respond(c *fiber.Ctx, logger *zap.Logger, op, callbackURL, ackText, internalText string, resolve resolver) error {
	if callbackURL == "" {
		return c.JSON(h.safeResolve(c.UserContext(), logger, internalText, resolve))
	}

	if err := c.JSON(dto.NewCallbackAck(ackText)); err != nil {
		return err
	}

	h.runner.Go(op, observability.RequestID(c), func(ctx context.Context) {
		final := h.safeResolve(ctx, logger, internalText, resolve)
		if err := h.deliverer.Deliver(ctx, callbackURL, final); err != nil {
			logger.Error("callback delivery failed", zap.Error(err))
		}
	})
	return nil
}

func (h *SkillHandler) safeResolve(ctx context.Context, logger *zap.Logger, internalText string, resolve resolver) (resp dto.SkillResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("skill resolution panicked", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			resp = dto.NewTextResponse(internalText)
		}
	}()
	return resolve(ctx)
}

func (h *SkillHandler) requestLogger(c *fiber.Ctx, op, callbackURL string) *zap.Logger {
	return h.logger.With(
		zap.String("request_id", observability.RequestID(c)),
		zap.String("operation", op),
		zap.Bool("callback", callbackURL != ""),
	)
}

func parseSkillRequest(c *fiber.Ctx) (dto.SkillRequest, error) {
	var req dto.SkillRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	return req, nil
}

func reply(text string) resolver {
	return func(context.Context) dto.SkillResponse {
		return dto.NewTextResponse(text)
	}
}

// formatPoints renders grouped thousands with at most three fraction digits.
func formatPoints(v float64) string {
	return pointsPrinter.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}
