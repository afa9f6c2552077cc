// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_aws

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/polly"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

const (
	DefaultRegion = "us-east-1"
	DefaultVoice  = "Joanna"
)

type awsOption struct {
	logger  commons.Logger
	session *session.Session
	mdlOpts utils.Option
}

func NewAwsOption(logger commons.Logger, credential internal_transformer.Credential, mdlOpts utils.Option) (*awsOption, error) {
	kx, ok := credential["key"]
	if !ok {
		return nil, fmt.Errorf("aws: illegal credential config")
	}
	key, ok := kx.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("aws: illegal credential config")
	}
	sx, ok := credential["secret"]
	if !ok {
		return nil, fmt.Errorf("aws: illegal credential config secret is not found")
	}
	secret, ok := sx.(string)
	if !ok || secret == "" {
		return nil, fmt.Errorf("aws: illegal credential config secret is not found")
	}

	region := DefaultRegion
	if rx, ok := credential["region"]; ok {
		if r, ok := rx.(string); ok && r != "" {
			region = r
		}
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(key, secret, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("aws: unable to create session: %w", err)
	}

	return &awsOption{
		logger:  logger,
		session: sess,
		mdlOpts: mdlOpts,
	}, nil
}

type pollyTextToSpeech struct {
	*awsOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewSpeechSynthesizer builds the Amazon Polly synthesizer, returning
// raw 16kHz PCM.
func NewSpeechSynthesizer(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.SpeechSynthesizer, error) {
	opt, err := NewAwsOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &pollyTextToSpeech{
		awsOption: opt,
		logger:    logger,
	}, nil
}

func (p *pollyTextToSpeech) Name() string {
	return "aws"
}

func (p *pollyTextToSpeech) Synthesize(ctx context.Context, text string, opts utils.Option) ([]byte, error) {
	defer p.Track()()

	resolved := p.mdlOpts.Merge(opts)
	voice := DefaultVoice
	if v, err := resolved.GetString(internal_transformer.OptionVoice); err == nil {
		voice = v
	}
	engine := "neural"
	if e, err := resolved.GetString(internal_transformer.OptionTTSModel); err == nil {
		engine = e
	}

	client := polly.New(p.session)
	out, err := client.SynthesizeSpeechWithContext(ctx, &polly.SynthesizeSpeechInput{
		OutputFormat: aws.String("pcm"),
		SampleRate:   aws.String("16000"),
		Text:         aws.String(text),
		VoiceId:      aws.String(voice),
		Engine:       aws.String(engine),
	})
	if err != nil {
		return nil, internal_transformer.NewProviderError(p.Name(), internal_transformer.StageSynthesis, err)
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, internal_transformer.NewProviderError(p.Name(), internal_transformer.StageSynthesis, err)
	}
	return audio, nil
}

func (p *pollyTextToSpeech) Verify(ctx context.Context) error {
	client := polly.New(p.session)
	if _, err := client.DescribeVoicesWithContext(ctx, &polly.DescribeVoicesInput{}); err != nil {
		return internal_transformer.NewProviderError(p.Name(), internal_transformer.StageSynthesis, err)
	}
	return nil
}
