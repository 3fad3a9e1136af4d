/*
Copyright © 2024 Ryan Painter paintersrp@gmail.com

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Paintersrp/snyft/internal/constants"
	"github.com/Paintersrp/snyft/internal/state"
	cmdpkg "github.com/Paintersrp/snyft/pkg/cmd"
	"github.com/Paintersrp/snyft/pkg/cmd/root"
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Flags bound to viper are read when the state is first needed,
	// after cobra parsed them.
	v := viper.GetViper()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	sess := cmdpkg.NewSession(func(ctx context.Context) (*state.State, error) {
		return state.NewState(ctx, v)
	})

	rootCmd := root.NewCmdRoot(sess, v)
	execErr := rootCmd.ExecuteContext(ctx)
	closeErr := sess.Close()

	if execErr != nil {
		os.Exit(1)
	}
	cobra.CheckErr(closeErr)
}
