package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/ec-storefront/internal/apperrors"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/readmodel"
	"github.com/spf13/cobra"
)

type mountFunc func(ctx context.Context) (*app, error)

func newRootCommand(mountApp mountFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the catalog, manage the cart and place orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.New(apperrors.Validation, "", err)
	})
	// a root without Args makes cobra report unknown commands as plain errors
	root.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return apperrors.Newf(apperrors.Validation, "", "unknown command %q for %q", args[0], cmd.CommandPath())
		}
		return nil
	}
	root.RunE = func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	}

	root.AddCommand(
		loginCommand(mountApp),
		signupCommand(mountApp),
		logoutCommand(mountApp),
		sessionCommand(mountApp),
		categoriesCommand(mountApp),
		productsCommand(mountApp),
		cartCommand(mountApp),
		addCommand(mountApp),
		updateCommand(mountApp),
		removeCommand(mountApp),
		clearCommand(mountApp),
		checkoutCommand(mountApp),
		ordersCommand(mountApp),
		profileCommand(mountApp),
		storesCommand(mountApp),
	)
	return root
}

// withApp mounts the app before running fn.
func withApp(mountApp mountFunc, fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := mountApp(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd, args, a)
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return apperrors.Newf(apperrors.Validation, "", "%s expects %d argument(s), got %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ============================================
// Account
// ============================================

func passwordOrEnv(password string) string {
	if password != "" {
		return password
	}
	return os.Getenv("STOREFRONT_PASSWORD")
}

func loginCommand(mountApp mountFunc) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			record, err := a.commands.SignIn(cmd.Context(), command.SignIn{Email: email, Password: passwordOrEnv(password)})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", record.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or STOREFRONT_PASSWORD)")
	return cmd
}

func signupCommand(mountApp mountFunc) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			record, err := a.commands.SignUp(cmd.Context(), command.SignUp{
				Email:       email,
				Password:    passwordOrEnv(password),
				DisplayName: name,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s\n", record.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or STOREFRONT_PASSWORD)")
	cmd.Flags().StringVar(&name, "name", "", "display name for the new profile")
	return cmd
}

func logoutCommand(mountApp mountFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			if err := a.commands.SignOut(cmd.Context(), command.SignOut{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		}),
	}
}

func sessionCommand(mountApp mountFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the stored session",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			out := cmd.OutOrStdout()
			s := a.session.Session()
			if s == nil {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			w := table(out)
			fmt.Fprintf(w, "State\t%s\n", a.session.State())
			fmt.Fprintf(w, "Email\t%s\n", s.Email)
			fmt.Fprintf(w, "User\t%s\n", s.LocalID)
			if exp, ok := a.session.ExpiresAt(); ok {
				fmt.Fprintf(w, "Token expires\t%s\n", exp.Local().Format(time.RFC1123))
			}
			return w.Flush()
		}),
	}
}

func profileCommand(mountApp mountFunc) *cobra.Command {
	var update command.UpdateProfile
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the profile, or update it when any field flag is given",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			out := cmd.OutOrStdout()
			if cmd.Flags().NFlag() > 0 {
				current, err := a.queries.GetProfile(cmd.Context())
				if err != nil {
					return err
				}
				merged := mergeProfile(cmd, update, current)
				if err := a.commands.UpdateProfile(cmd.Context(), merged); err != nil {
					return err
				}
				fmt.Fprintln(out, "Profile updated")
				return nil
			}

			p, err := a.queries.GetProfile(cmd.Context())
			if err != nil {
				return err
			}
			w := table(out)
			fmt.Fprintf(w, "Name\t%s\n", p.DisplayName)
			fmt.Fprintf(w, "Phone\t%s\n", p.Phone)
			fmt.Fprintf(w, "Date of birth\t%s\n", p.DateOfBirth)
			fmt.Fprintf(w, "Address\t%s\n", p.Address)
			fmt.Fprintf(w, "Occupation\t%s\n", p.Occupation)
			fmt.Fprintf(w, "Website\t%s\n", p.Website)
			fmt.Fprintf(w, "Bio\t%s\n", p.Bio)
			return w.Flush()
		}),
	}
	f := cmd.Flags()
	f.StringVar(&update.DisplayName, "name", "", "display name")
	f.StringVar(&update.Phone, "phone", "", "phone number")
	f.StringVar(&update.DateOfBirth, "dob", "", "date of birth")
	f.StringVar(&update.Address, "address", "", "postal address")
	f.StringVar(&update.Bio, "bio", "", "short bio")
	f.StringVar(&update.Occupation, "occupation", "", "occupation")
	f.StringVar(&update.Website, "website", "", "website")
	return cmd
}

// mergeProfile keeps the stored value of every field whose flag was not given.
func mergeProfile(cmd *cobra.Command, u command.UpdateProfile, stored *readmodel.Profile) command.UpdateProfile {
	keep := func(flag string, given *string, value string) {
		if !cmd.Flags().Changed(flag) {
			*given = value
		}
	}
	keep("name", &u.DisplayName, stored.DisplayName)
	keep("phone", &u.Phone, stored.Phone)
	keep("dob", &u.DateOfBirth, stored.DateOfBirth)
	keep("address", &u.Address, stored.Address)
	keep("bio", &u.Bio, stored.Bio)
	keep("occupation", &u.Occupation, stored.Occupation)
	keep("website", &u.Website, stored.Website)
	return u
}

// ============================================
// Catalog
// ============================================

func categoriesCommand(mountApp mountFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			categories, err := a.queries.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME")
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
			}
			return w.Flush()
		}),
	}
}

func productsCommand(mountApp mountFunc) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally within one category",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			products, err := a.queries.ListProducts(cmd.Context(), category)
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tTITLE\tPRICE\tSTOCK")
			for _, p := range products {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Title, money(p.Price), p.Stock)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "category id")
	return cmd
}

// ============================================
// Cart
// ============================================

func printCart(out io.Writer, state cart.State) error {
	if state.IsEmpty() {
		fmt.Fprintln(out, "Cart is empty")
		return nil
	}
	w := table(out)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tQTY\tSUBTOTAL")
	for _, item := range state.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", item.ProductID, item.Title, money(item.UnitPrice), item.Quantity, money(item.Subtotal()))
	}
	fmt.Fprintf(w, "\t\t\t%d\t%s\n", state.TotalQuantity, money(state.TotalPrice))
	return w.Flush()
}

func cartCommand(mountApp mountFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			return printCart(cmd.OutOrStdout(), a.queries.GetCart())
		}),
	}
}

func addCommand(mountApp mountFunc) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Add a product to the cart",
		Args:  exactArgs(1),
		RunE: withApp(mountApp, func(cmd *cobra.Command, args []string, a *app) error {
			state, err := a.commands.AddToCart(cmd.Context(), command.AddToCart{ProductID: args[0], Quantity: quantity})
			if err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), state)
		}),
	}
	cmd.Flags().IntVarP(&quantity, "qty", "q", 1, "quantity to add")
	return cmd
}

func updateCommand(mountApp mountFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "update PRODUCT_ID QUANTITY",
		Short: "Set the quantity of a cart line, limited to the available stock",
		Args:  exactArgs(2),
		RunE: withApp(mountApp, func(cmd *cobra.Command, args []string, a *app) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return apperrors.Newf(apperrors.Validation, "", "quantity must be a number, got %q", args[1])
			}
			state, err := a.commands.UpdateQuantity(cmd.Context(), command.UpdateQuantity{ProductID: args[0], Quantity: quantity})
			if err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), state)
		}),
	}
}

func removeCommand(mountApp mountFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "remove PRODUCT_ID",
		Short: "Remove a line from the cart",
		Args:  exactArgs(1),
		RunE: withApp(mountApp, func(cmd *cobra.Command, args []string, a *app) error {
			state, err := a.commands.RemoveFromCart(cmd.Context(), command.RemoveFromCart{ProductID: args[0]})
			if err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), state)
		}),
	}
}

func clearCommand(mountApp mountFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			if _, err := a.commands.ClearCart(cmd.Context(), command.ClearCart{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
			return nil
		}),
	}
}

// ============================================
// Orders
// ============================================

func checkoutCommand(mountApp mountFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			order, err := a.commands.PlaceOrder(cmd.Context(), command.PlaceOrder{})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s placed: %d item(s), total %s\n",
				order.ID, order.TotalQuantity, money(order.TotalAmount))
			return nil
		}),
	}
}

func ordersCommand(mountApp mountFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders, newest first",
		Args:  exactArgs(0),
		RunE: withApp(mountApp, func(cmd *cobra.Command, _ []string, a *app) error {
			orders, err := a.queries.ListOrders(cmd.Context())
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tPLACED\tITEMS\tTOTAL\tSTATUS")
			for _, o := range orders {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					o.ID, o.CreatedAt.Local().Format("2006-01-02 15:04"), o.TotalQuantity, money(o.TotalAmount), o.Status)
			}
			return w.Flush()
		}),
	}
}

// ============================================
// Stores
// ============================================

func storesCommand(mountApp mountFunc) *cobra.Command {
	var radius uint
	var keyword string
	cmd := &cobra.Command{
		Use:   "stores ADDRESS...",
		Short: "Find stores near an address",
		Args:  cobra.ArbitraryArgs,
		RunE: withApp(mountApp, func(cmd *cobra.Command, args []string, a *app) error {
			stores, err := a.commands.FindStores(cmd.Context(), command.FindStores{
				Address:      strings.Join(args, " "),
				RadiusMeters: radius,
				Keyword:      keyword,
			})
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "NAME\tADDRESS\tRATING\tOPEN")
			for _, s := range stores {
				open := "-"
				if s.OpenNow != nil {
					open = strconv.FormatBool(*s.OpenNow)
				}
				fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\n", s.Name, s.Address, s.Rating, open)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().UintVar(&radius, "radius", 0, "search radius in meters (default 5000)")
	cmd.Flags().StringVar(&keyword, "keyword", "", "place keyword (default \"electronics store\")")
	return cmd
}
