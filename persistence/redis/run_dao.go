package redis

import (
	"context"

	"github.com/canvasflow/canvasflow/logger"
	"github.com/canvasflow/canvasflow/model"
	"github.com/canvasflow/canvasflow/persistence"
	"github.com/canvasflow/canvasflow/util"
	rd "github.com/go-redis/redis/v9"
	"go.uber.org/zap"
)

var _ persistence.RunStorage = new(redisRunStorage)

const RUN_KEY string = "RUN"
const RUN_INDEX_KEY string = "RUN_IDX"

type redisRunStorage struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.Run]
}

func NewRedisRunStorage(conf Config) *redisRunStorage {
	return &redisRunStorage{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.Run](),
	}
}

// SaveRun overwrites the full run record and indexes it by workflow name.
// The engine notifies after every mutation, so the stored record is always
// the latest snapshot.
func (rrs *redisRunStorage) SaveRun(run *model.Run) error {
	ctx := context.Background()
	data, err := rrs.encoderDecoder.Encode(*run)
	if err != nil {
		return err
	}
	key := rrs.baseDao.getNamespaceKey(RUN_KEY, run.Id)
	indexKey := rrs.baseDao.getNamespaceKey(RUN_INDEX_KEY, run.WorkflowName)
	_, err = rrs.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.SAdd(ctx, indexKey, run.Id)
		return nil
	})
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rrs *redisRunStorage) GetRun(id string) (*model.Run, error) {
	ctx := context.Background()
	key := rrs.baseDao.getNamespaceKey(RUN_KEY, id)
	val, err := rrs.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == rd.Nil {
			return nil, persistence.NotFoundError{Kind: "run", Key: id}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rrs.encoderDecoder.Decode([]byte(val))
}

func (rrs *redisRunStorage) GetRunsForWorkflow(workflowName string) ([]*model.Run, error) {
	ctx := context.Background()
	indexKey := rrs.baseDao.getNamespaceKey(RUN_INDEX_KEY, workflowName)
	ids, err := rrs.redisClient.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	runs := make([]*model.Run, 0, len(ids))
	for _, id := range ids {
		run, err := rrs.GetRun(id)
		if err != nil {
			logger.Warn("skipping unreadable run record",
				zap.String("workflow", workflowName),
				zap.String("runId", id),
				zap.Error(err))
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (rrs *redisRunStorage) DeleteRun(id string) error {
	ctx := context.Background()
	run, err := rrs.GetRun(id)
	if err != nil {
		return err
	}
	key := rrs.baseDao.getNamespaceKey(RUN_KEY, id)
	indexKey := rrs.baseDao.getNamespaceKey(RUN_INDEX_KEY, run.WorkflowName)
	_, err = rrs.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, indexKey, id)
		return nil
	})
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
