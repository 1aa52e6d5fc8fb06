package main

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/j3schaue/intro-to-random-forests/forest/json"
	"github.com/j3schaue/intro-to-random-forests/forest/redisstore"
	"gopkg.in/redis.v5"
)

const redisModelKeyPrefix = "rflab:model"

/*
writeModel serializes the given model as JSON onto output: a redis URL
with the model name as fragment (redis://host:port/db#name), a file
path, or STDOUT when output is "".
*/
func writeModel(ctx context.Context, config *rootCmdConfig, output string, m *json.Model) error {
	if strings.HasPrefix(output, "redis://") {
		store, name, err := redisModelStore(output)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Write(&buf, m); err != nil {
			return err
		}
		config.Logf("Storing model %s in redis...", name)
		return store.Put(ctx, name, buf.Bytes())
	}
	f := os.Stdout
	if output != "" {
		var err error
		f, err = os.Create(output)
		if err != nil {
			return fmt.Errorf("writing model to %s: %v", output, err)
		}
		defer f.Close()
		config.Logf("Writing model to %s...", output)
	}
	return json.Write(f, m)
}

/*
readModel parses a JSON model from input: a redis URL with the model
name as fragment or a file path.
*/
func readModel(ctx context.Context, config *rootCmdConfig, input string) (*json.Model, error) {
	if strings.HasPrefix(input, "redis://") {
		store, name, err := redisModelStore(input)
		if err != nil {
			return nil, err
		}
		config.Logf("Retrieving model %s from redis...", name)
		data, err := store.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		return json.Read(bytes.NewReader(data))
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("reading model from %s: %v", input, err)
	}
	defer f.Close()
	m, err := json.Read(f)
	if err != nil {
		err = fmt.Errorf("parsing model from %s: %v", input, err)
	}
	return m, err
}

func redisModelStore(reference string) (*redisstore.Store, string, error) {
	u, err := url.Parse(reference)
	if err != nil {
		return nil, "", fmt.Errorf("parsing redis model reference %s: %v", reference, err)
	}
	name := u.Fragment
	if name == "" {
		return nil, "", fmt.Errorf("redis model reference %s names no model in its fragment", reference)
	}
	u.Fragment = ""
	options, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, "", fmt.Errorf("parsing redis model reference %s: %v", reference, err)
	}
	return redisstore.New(redis.NewClient(options), redisModelKeyPrefix), name, nil
}
