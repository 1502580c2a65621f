package section

import (
	"fmt"

	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
)

// PERecord holds the counters a processing element reports per sample.
type PERecord struct {
	PEID                     uint32
	EventsProcessed          uint32
	EventsAborted            uint32
	EventsRolledBack         uint32
	TotalRollbacks           uint32
	SecondaryRollbacks       uint32
	FossilCollectionAttempts uint32
	PQQueueSize              uint32
	NetworkSends             uint32
	NetworkReads             uint32
	NumberGVT                uint32
	PEEventTies              uint32
	AllReduce                uint32

	Efficiency        float32
	NetworkReadTime   float32
	NetworkOtherTime  float32
	GVTTime           float32
	FossilCollectTime float32
	EventAbortTime    float32
	EventProcessTime  float32
	PQTime            float32
	RollbackTime      float32
	CancelQTime       float32
	AVLTime           float32
	BuddyTime         float32
	LZ4Time           float32

	VirtualTime float64
	RealTime    float64
}

// KPRecord holds the counters a kernel process reports per sample.
type KPRecord struct {
	PEID               uint32
	KPID               uint32
	EventsProcessed    uint32
	EventsAbort        uint32
	EventsRolledBack   uint32
	TotalRollbacks     uint32
	SecondaryRollbacks uint32
	NetworkSends       uint32
	NetworkReads       uint32

	TimeAheadGVT float32
	Efficiency   float32

	VirtualTime float64
	RealTime    float64
}

// LPRecord holds the counters a logical process reports per sample.
type LPRecord struct {
	PEID             uint32
	KPID             uint32
	LPID             uint32
	EventsProcessed  uint32
	EventsAbort      uint32
	EventsRolledBack uint32
	NetworkSends     uint32
	NetworkReads     uint32

	Efficiency float32

	VirtualTime float64
	RealTime    float64
}

// Sample converts the record to layout order.
func (r PERecord) Sample() Sample {
	return Sample{
		Kind:        format.KindPE,
		VirtualTime: r.VirtualTime,
		RealTime:    r.RealTime,
		Uints: []uint32{
			r.PEID, r.EventsProcessed, r.EventsAborted, r.EventsRolledBack,
			r.TotalRollbacks, r.SecondaryRollbacks, r.FossilCollectionAttempts,
			r.PQQueueSize, r.NetworkSends, r.NetworkReads, r.NumberGVT,
			r.PEEventTies, r.AllReduce,
		},
		Floats: []float32{
			r.Efficiency, r.NetworkReadTime, r.NetworkOtherTime, r.GVTTime,
			r.FossilCollectTime, r.EventAbortTime, r.EventProcessTime, r.PQTime,
			r.RollbackTime, r.CancelQTime, r.AVLTime, r.BuddyTime, r.LZ4Time,
		},
	}
}

// Sample converts the record to layout order.
func (r KPRecord) Sample() Sample {
	return Sample{
		Kind:        format.KindKP,
		VirtualTime: r.VirtualTime,
		RealTime:    r.RealTime,
		Uints: []uint32{
			r.PEID, r.KPID, r.EventsProcessed, r.EventsAbort, r.EventsRolledBack,
			r.TotalRollbacks, r.SecondaryRollbacks, r.NetworkSends, r.NetworkReads,
		},
		Floats: []float32{r.TimeAheadGVT, r.Efficiency},
	}
}

// Sample converts the record to layout order.
func (r LPRecord) Sample() Sample {
	return Sample{
		Kind:        format.KindLP,
		VirtualTime: r.VirtualTime,
		RealTime:    r.RealTime,
		Uints: []uint32{
			r.PEID, r.KPID, r.LPID, r.EventsProcessed, r.EventsAbort,
			r.EventsRolledBack, r.NetworkSends, r.NetworkReads,
		},
		Floats: []float32{r.Efficiency},
	}
}

// PE converts a PE sample to its named record.
func (s Sample) PE() (PERecord, error) {
	if err := s.expect(format.KindPE); err != nil {
		return PERecord{}, err
	}
	u, f := s.Uints, s.Floats

	return PERecord{
		PEID: u[0], EventsProcessed: u[1], EventsAborted: u[2], EventsRolledBack: u[3],
		TotalRollbacks: u[4], SecondaryRollbacks: u[5], FossilCollectionAttempts: u[6],
		PQQueueSize: u[7], NetworkSends: u[8], NetworkReads: u[9], NumberGVT: u[10],
		PEEventTies: u[11], AllReduce: u[12],

		Efficiency: f[0], NetworkReadTime: f[1], NetworkOtherTime: f[2], GVTTime: f[3],
		FossilCollectTime: f[4], EventAbortTime: f[5], EventProcessTime: f[6], PQTime: f[7],
		RollbackTime: f[8], CancelQTime: f[9], AVLTime: f[10], BuddyTime: f[11], LZ4Time: f[12],

		VirtualTime: s.VirtualTime,
		RealTime:    s.RealTime,
	}, nil
}

// KP converts a KP sample to its named record.
func (s Sample) KP() (KPRecord, error) {
	if err := s.expect(format.KindKP); err != nil {
		return KPRecord{}, err
	}
	u, f := s.Uints, s.Floats

	return KPRecord{
		PEID: u[0], KPID: u[1], EventsProcessed: u[2], EventsAbort: u[3], EventsRolledBack: u[4],
		TotalRollbacks: u[5], SecondaryRollbacks: u[6], NetworkSends: u[7], NetworkReads: u[8],

		TimeAheadGVT: f[0], Efficiency: f[1],

		VirtualTime: s.VirtualTime,
		RealTime:    s.RealTime,
	}, nil
}

// LP converts an LP sample to its named record.
func (s Sample) LP() (LPRecord, error) {
	if err := s.expect(format.KindLP); err != nil {
		return LPRecord{}, err
	}
	u := s.Uints

	return LPRecord{
		PEID: u[0], KPID: u[1], LPID: u[2], EventsProcessed: u[3], EventsAbort: u[4],
		EventsRolledBack: u[5], NetworkSends: u[6], NetworkReads: u[7],

		Efficiency: s.Floats[0],

		VirtualTime: s.VirtualTime,
		RealTime:    s.RealTime,
	}, nil
}

func (s Sample) expect(kind format.RecordKind) error {
	if s.Kind != kind {
		return fmt.Errorf("%w: want %s sample, got %s", errs.ErrUnknownRecordKind, kind, s.Kind)
	}

	return s.Validate()
}
