package kvsession

import (
	"context"
	"fmt"
	"strings"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/logger"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
	"github.com/ryanfowler/gokv/internal/sasl"
	"github.com/ryanfowler/gokv/internal/topology"
)

// bootstrap drives the ordered HELLO → SASL → GET_ERROR_MAP →
// SELECT_BUCKET → GET_CLUSTER_CONFIG chain (§4.3.1) as an explicit linear
// state machine rather than nested continuations (§9 "Callback chains →
// linear state machines").
func (s *Session) bootstrap(ctx context.Context) error {
	s.state.Store(int32(StateHandshaking))
	if err := s.doHello(ctx); err != nil {
		return fmt.Errorf("kvsession: HELLO failed: %w", err)
	}

	s.state.Store(int32(StateAuthenticating))
	if err := s.doSASL(ctx); err != nil {
		return fmt.Errorf("kvsession: SASL failed: %w", err)
	}

	if s.features.Has(mcbp.FeatureXERROR) {
		if err := s.doGetErrorMap(ctx); err != nil {
			return fmt.Errorf("kvsession: GET_ERROR_MAP failed: %w", err)
		}
	}

	if s.opts.Bucket != "" {
		s.state.Store(int32(StateSelectingBucket))
		if err := s.doSelectBucket(ctx); err != nil {
			return fmt.Errorf("kvsession: SELECT_BUCKET failed: %w", err)
		}
	}

	if err := s.doGetClusterConfig(ctx); err != nil {
		return fmt.Errorf("kvsession: GET_CLUSTER_CONFIG failed: %w", err)
	}
	return nil
}

// roundTrip sends pkt and blocks for its matching response or ctx
// cancellation. Bootstrap steps are inherently sequential (each depends
// on the last), so this straightforward round trip is clearer to test
// and trace than overlapping them (§9 design notes).
func (s *Session) roundTrip(ctx context.Context, pkt *mcbp.Packet) (mcbp.Packet, error) {
	type result struct {
		pkt mcbp.Packet
		err error
	}
	resCh := make(chan result, 1)

	_, err := s.send(pkt, func(resp mcbp.Packet, err error) {
		resCh <- result{pkt: resp, err: err}
	})
	if err != nil {
		return mcbp.Packet{}, err
	}

	select {
	case res := <-resCh:
		return res.pkt, res.err
	case <-ctx.Done():
		return mcbp.Packet{}, kverrors.Wrap(kverrors.KindUnambiguousTimeout, "bootstrap step timed out", ctx.Err())
	}
}

func (s *Session) doHello(ctx context.Context) error {
	features := s.opts.Features
	if len(features) == 0 {
		features = DefaultFeatures()
	}
	userAgent := s.opts.UserAgent
	if len(userAgent) > mcbp.MaxUserAgentLen {
		userAgent = userAgent[:mcbp.MaxUserAgentLen]
	}

	pkt := &mcbp.Packet{
		Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpHello},
		Key:    []byte(userAgent),
		Value:  mcbp.EncodeHelloBody(features),
	}
	resp, err := s.roundTrip(ctx, pkt)
	if err != nil {
		return err
	}
	if !resp.Header.Status().Success() {
		return kverrors.New(kverrors.FromStatus(resp.Header.Status()), "server rejected HELLO")
	}
	s.features = mcbp.DecodeHelloBody(resp.Value)
	return nil
}

func (s *Session) doSASL(ctx context.Context) error {
	mechs := s.opts.Mechanisms
	if len(mechs) == 0 {
		tlsEnabled := s.opts.TLSConfig != nil
		serverMechs, err := s.listMechs(ctx)
		if err != nil {
			logger.Warn("kvsession: SASL_LIST_MECHS failed, using defaults", "error", err)
			mechs = sasl.DefaultMechanisms(s.opts.Username, s.opts.Password, tlsEnabled)
		} else {
			mechs = filterMechanisms(sasl.DefaultMechanisms(s.opts.Username, s.opts.Password, tlsEnabled), serverMechs)
		}
	}

	var lastErr error
	for _, mech := range mechs {
		if err := s.authenticate(ctx, mech); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = kverrors.New(kverrors.KindAuthenticationFailure, "no SASL mechanisms available")
	}
	return lastErr
}

func filterMechanisms(preferred []sasl.Mechanism, serverSupported []string) []sasl.Mechanism {
	supported := make(map[string]bool, len(serverSupported))
	for _, name := range serverSupported {
		supported[name] = true
	}
	var out []sasl.Mechanism
	for _, m := range preferred {
		if supported[m.Name()] {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return preferred // server list unparseable/empty: fall back to trying our defaults anyway
	}
	return out
}

func (s *Session) listMechs(ctx context.Context) ([]string, error) {
	pkt := &mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpSASLListMechs}}
	resp, err := s.roundTrip(ctx, pkt)
	if err != nil {
		return nil, err
	}
	if !resp.Header.Status().Success() {
		return nil, kverrors.New(kverrors.FromStatus(resp.Header.Status()), "SASL_LIST_MECHS rejected")
	}
	return strings.Fields(string(resp.Value)), nil
}

func (s *Session) authenticate(ctx context.Context, mech sasl.Mechanism) error {
	first, err := mech.Start()
	if err != nil {
		return err
	}

	pkt := &mcbp.Packet{
		Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpSASLAuth},
		Key:    []byte(mech.Name()),
		Value:  first,
	}
	resp, err := s.roundTrip(ctx, pkt)
	if err != nil {
		return err
	}

	stepped := false
	for {
		switch resp.Header.Status() {
		case mcbp.StatusSuccess:
			if stepped {
				if _, _, err := mech.Step(resp.Value); err != nil {
					return kverrors.Wrap(kverrors.KindAuthenticationFailure, "SASL server verification failed", err)
				}
			}
			return nil
		case mcbp.StatusAuthContinue:
			next, done, err := mech.Step(resp.Value)
			if err != nil {
				return kverrors.Wrap(kverrors.KindAuthenticationFailure, "SASL step rejected", err)
			}
			if done {
				return nil
			}
			stepPkt := &mcbp.Packet{
				Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpSASLStep},
				Key:    []byte(mech.Name()),
				Value:  next,
			}
			stepped = true
			resp, err = s.roundTrip(ctx, stepPkt)
			if err != nil {
				return err
			}
			continue
		default:
			return kverrors.New(kverrors.KindAuthenticationFailure,
				fmt.Sprintf("SASL authentication failed: %s", resp.Header.Status()))
		}
	}
}

func (s *Session) doGetErrorMap(ctx context.Context) error {
	pkt := &mcbp.Packet{
		Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpGetErrorMap},
		Value:  []byte{0x00, 0x02}, // requested error map version
	}
	resp, err := s.roundTrip(ctx, pkt)
	if err != nil {
		return err
	}
	if !resp.Header.Status().Success() {
		logger.Warn("kvsession: GET_ERROR_MAP rejected, continuing without an error map",
			"status", resp.Header.Status().String())
		return nil
	}
	em, err := mcbp.ParseErrorMap(resp.Value)
	if err != nil {
		return err
	}
	s.errorMap = em
	return nil
}

func (s *Session) doSelectBucket(ctx context.Context) error {
	pkt := &mcbp.Packet{
		Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpSelectBucket},
		Key:    []byte(s.opts.Bucket),
	}
	resp, err := s.roundTrip(ctx, pkt)
	if err != nil {
		return err
	}
	switch resp.Header.Status() {
	case mcbp.StatusSuccess:
		return nil
	case mcbp.StatusKeyNotFound:
		return kverrors.New(kverrors.KindConfigurationNotAvailable, "bucket not found (yet)")
	case mcbp.StatusNoAccess:
		return kverrors.New(kverrors.KindBucketNotFound, "no access to bucket")
	default:
		return kverrors.New(kverrors.FromStatus(resp.Header.Status()), "SELECT_BUCKET failed")
	}
}

func (s *Session) doGetClusterConfig(ctx context.Context) error {
	cfg, err := s.PollClusterConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.VbucketMap != nil && len(cfg.VbucketMap) == 0 {
		return kverrors.New(kverrors.KindConfigurationNotAvailable, "bootstrap configuration has an empty vbucket map")
	}
	if s.opts.OnConfig != nil {
		s.opts.OnConfig(cfg)
	}
	return nil
}

// PollClusterConfig issues a single GET_CLUSTER_CONFIG round trip and
// returns the parsed configuration. It implements topology.Session for
// the tracker's periodic GCCCP poll (§4.2); the tracker applies the
// result itself rather than relying on OnConfig.
func (s *Session) PollClusterConfig(ctx context.Context) (*topology.Config, error) {
	pkt := &mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpGetClusterConfig}}
	resp, err := s.roundTrip(ctx, pkt)
	if err != nil {
		return nil, err
	}

	if resp.Header.Status() == mcbp.StatusNoBucket {
		// GCCCP unsupported on this bucket-less session: fabricate a
		// blank configuration (§4.3.1 step 6).
		return &topology.Config{}, nil
	}
	if !resp.Header.Status().Success() {
		return nil, kverrors.New(kverrors.FromStatus(resp.Header.Status()), "GET_CLUSTER_CONFIG failed")
	}

	return topology.ParseConfig(resp.Value, s.opts.BootstrapHost)
}
