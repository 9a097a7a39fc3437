package audio

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
)

type RecordStream interface {
	io.Closer
}

// RecorderPCM captures PCM data from an input device into a writer
// until the returned stream is closed.
type RecorderPCM interface {
	io.Closer
	Ping(ctx context.Context) error
	RecordPCM(
		ctx context.Context,
		sampleRate SampleRate,
		channels Channel,
		format PCMFormat,
		writer io.Writer,
	) (RecordStream, error)
}

type RecorderPCMFactory interface {
	NewRecorderPCM() (RecorderPCM, error)
}

type recorderFactoryWithPriority struct {
	Priority int
	RecorderPCMFactory
}

var (
	recorderFactoriesLocker sync.Mutex
	recorderFactories       []recorderFactoryWithPriority

	lastSuccessfulRecorderFactory RecorderPCMFactory
)

// RegisterRecorderFactory makes a backend available to NewRecorderAuto;
// factories with a higher priority are tried first.
func RegisterRecorderFactory(
	priority int,
	factory RecorderPCMFactory,
) {
	recorderFactoriesLocker.Lock()
	defer recorderFactoriesLocker.Unlock()
	recorderFactories = append(recorderFactories, recorderFactoryWithPriority{
		Priority:           priority,
		RecorderPCMFactory: factory,
	})
	sort.SliceStable(recorderFactories, func(i, j int) bool {
		return recorderFactories[i].Priority > recorderFactories[j].Priority
	})
}

func RecorderFactories() []RecorderPCMFactory {
	recorderFactoriesLocker.Lock()
	defer recorderFactoriesLocker.Unlock()
	factories := make([]RecorderPCMFactory, 0, len(recorderFactories))
	for _, factory := range recorderFactories {
		factories = append(factories, factory.RecorderPCMFactory)
	}
	return factories
}

func getLastSuccessfulRecorderFactory() RecorderPCMFactory {
	recorderFactoriesLocker.Lock()
	defer recorderFactoriesLocker.Unlock()
	return lastSuccessfulRecorderFactory
}

// NewRecorderAuto returns the first registered recorder that could be
// initialized and pinged. If there is none, the error lists why every
// backend failed.
func NewRecorderAuto(
	ctx context.Context,
) (RecorderPCM, error) {
	if factory := getLastSuccessfulRecorderFactory(); factory != nil {
		recorder, err := factory.NewRecorderPCM()
		if err == nil {
			if err := recorder.Ping(ctx); err == nil {
				return recorder, nil
			}
			_ = recorder.Close()
		}
	}

	var mErr *multierror.Error
	for _, factory := range RecorderFactories() {
		recorder, err := factory.NewRecorderPCM()
		logger.Debugf(ctx, "initializing recorder %T result is %v", factory, err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to initialize %T: %w", factory, err))
			continue
		}

		err = recorder.Ping(ctx)
		logger.Debugf(ctx, "pinging PCM recorder %T result is %v", recorder, err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to ping %T: %w", recorder, err))
			_ = recorder.Close()
			continue
		}

		recorderFactoriesLocker.Lock()
		lastSuccessfulRecorderFactory = factory
		recorderFactoriesLocker.Unlock()
		return recorder, nil
	}

	if err := mErr.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("was unable to initialize any PCM recorder: %w", err)
	}
	return nil, fmt.Errorf("no PCM recorder backends are registered")
}
